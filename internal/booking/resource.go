package booking

import (
	"fmt"
	"strings"
)

type ResourceType string

const (
	ResourceRoom    ResourceType = "Room"
	ResourceVehicle ResourceType = "Vehicle"
)

// ParseResourceType accepts the canonical names plus the legacy lowercase
// and Indonesian spellings still sent by older clients.
func ParseResourceType(s string) (ResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "room", "ruangan":
		return ResourceRoom, nil
	case "vehicle", "kendaraan":
		return ResourceVehicle, nil
	default:
		return "", fmt.Errorf("unknown resource type: %s", s)
	}
}

// Resource identifies a single reservable room or vehicle.
type Resource struct {
	Type ResourceType `json:"resourceType"`
	ID   string       `json:"resourceId"`
}

func (r Resource) Validate() error {
	switch r.Type {
	case ResourceRoom, ResourceVehicle:
	default:
		return ValidationError{Code: "RESOURCE_TYPE_INVALID", Message: "resource type must be Room or Vehicle"}
	}
	if strings.TrimSpace(r.ID) == "" {
		return ValidationError{Code: "RESOURCE_ID_REQUIRED", Message: "resource id is required"}
	}
	return nil
}

// Key is the serialization key used to lock a resource's schedule.
func (r Resource) Key() string {
	return string(r.Type) + ":" + r.ID
}

func (r Resource) String() string {
	return r.Key()
}
