package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleStudent   Role = "student"
	RoleAssistant Role = "assistant"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

type AccountState string

const (
	AccountActivated   AccountState = "Activated"
	AccountDeactivated AccountState = "Deactivated"
)

// DeviceTimeLayout is the layout of every device timestamp stored on an account.
const DeviceTimeLayout = "2006-01-02 15:04:05"

type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceBot     DeviceType = "bot"
)

type Device struct {
	DeviceID   string     `bson:"device_id" json:"device_id"`
	IP         string     `bson:"ip" json:"ip"`
	Browser    string     `bson:"browser" json:"browser"`
	OS         string     `bson:"os" json:"os"`
	DeviceType DeviceType `bson:"device_type" json:"device_type"`
	FirstLogin string     `bson:"first_login" json:"first_login"`
	LastLogin  string     `bson:"last_login" json:"last_login"`
}

type DeviceLimitations struct {
	AllowedDevices int      `bson:"allowed_devices" json:"allowed_devices"`
	Devices        []Device `bson:"devices" json:"devices"`
	LastLogin      string   `bson:"last_login,omitempty" json:"last_login,omitempty"`
}

// HasDevice reports whether deviceID is already registered.
func (d DeviceLimitations) HasDevice(deviceID string) bool {
	for _, device := range d.Devices {
		if device.DeviceID == deviceID {
			return true
		}
	}
	return false
}

// Account is a login-capable user. Students live in the students
// collection, staff in users; ID is always the string form.
type Account struct {
	ObjectID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ID                string             `bson:"id" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash      string             `bson:"password" json:"-"`
	Role              Role               `bson:"role" json:"role"`
	AccountState      AccountState       `bson:"account_state" json:"account_state"`
	DeviceLimitations DeviceLimitations  `bson:"device_limitations" json:"device_limitations"`
	CreatedAt         time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`

	// Source is the collection the account was loaded from.
	Source string `bson:"-" json:"-"`
}

func (a Account) Active() bool {
	return a.AccountState == AccountActivated
}
