package models

import "gorm.io/gorm"

// NotificationPrefs are the per-parent notification toggles. A nil
// pointer means the parent never touched the setting and defaults to on.
type NotificationPrefs struct {
	WhenBusMakeHomePickup   *bool `json:"when_bus_make_home_pickup,omitempty"`
	WhenBusMakesHomeDropOff *bool `json:"when_bus_makes_home_drop_off,omitempty"`
}

// UserMeta is free-form profile metadata stored as a JSON column.
type UserMeta struct {
	Notifications NotificationPrefs `json:"notifications"`
}

type User struct {
	gorm.Model
	Name     string   `json:"name"`
	Email    string   `json:"email" gorm:"unique"`
	Password string   `json:"-"`
	Phone    string   `json:"phone"`
	Role     string   `json:"role"` // "parent", "driver", "admin"
	Meta     UserMeta `json:"meta" gorm:"serializer:json"`

	// Actor-specific relations
	Students []Student `gorm:"foreignKey:ParentID" json:"students,omitempty"`
	Vehicles []Vehicle `gorm:"foreignKey:DriverID" json:"vehicles,omitempty"`
}

// WantsPickupNotification reports whether the parent should be told when
// the bus makes a home pickup. Unset preferences default to on.
func (u *User) WantsPickupNotification() bool {
	p := u.Meta.Notifications.WhenBusMakeHomePickup
	return p == nil || *p
}

// WantsDropoffNotification is the dropoff counterpart of
// WantsPickupNotification.
func (u *User) WantsDropoffNotification() bool {
	p := u.Meta.Notifications.WhenBusMakesHomeDropOff
	return p == nil || *p
}
