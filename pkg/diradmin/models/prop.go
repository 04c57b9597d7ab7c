package models

// PropType scopes a property to the kind of record that owns it
type PropType string

const (
	PropTypeGroup PropType = "GROUP"
)

// Prop is a key/value pair owned by the record identified by (Type, OwnerID)
type Prop struct {
	ID      uint     `gorm:"primarykey" json:"-" yaml:"-"`
	Type    PropType `gorm:"type:varchar(32);not null;uniqueIndex:idx_prop_owner_key" json:"-" yaml:"-"`
	OwnerID uint     `gorm:"not null;uniqueIndex:idx_prop_owner_key" json:"-" yaml:"-"`
	Key     string   `gorm:"not null;uniqueIndex:idx_prop_owner_key" json:"key" yaml:"key" validate:"required,max=255"`
	Value   string   `json:"value" yaml:"value" validate:"max=4096"`
}
