package valueobjects

import (
	"fmt"
	"strings"

	pkgerrors "linklist-backend/pkg/errors"
)

// EntityType names the kind of thing being voted or commented on
type EntityType string

const (
	EntityTypeList EntityType = "LIST"
	EntityTypeLink EntityType = "LINK"
)

// keySeparators may not appear in identifiers because both storage adapters
// build composite keys out of them.
const keySeparators = "#/"

// EntityRef identifies an entity by its (type, id) pair. The core treats it as
// opaque beyond equality.
type EntityRef struct {
	entityType EntityType
	entityID   string
}

// NewEntityRef validates and normalizes an entity reference. The type is
// upper-cased so "list" and "LIST" address the same entity.
func NewEntityRef(entityType, entityID string) (EntityRef, error) {
	t := strings.ToUpper(strings.TrimSpace(entityType))
	id := strings.TrimSpace(entityID)

	if t == "" {
		return EntityRef{}, pkgerrors.NewValidationError("entityType is required")
	}
	if id == "" {
		return EntityRef{}, pkgerrors.NewValidationError("entityId is required")
	}
	if strings.ContainsAny(t, keySeparators) || strings.ContainsAny(id, keySeparators) {
		return EntityRef{}, pkgerrors.NewValidationError("entity reference contains reserved characters")
	}

	return EntityRef{entityType: EntityType(t), entityID: id}, nil
}

// MustEntityRef is NewEntityRef for trusted input such as stored records
func MustEntityRef(entityType, entityID string) EntityRef {
	ref, err := NewEntityRef(entityType, entityID)
	if err != nil {
		panic(err)
	}
	return ref
}

func (r EntityRef) Type() EntityType { return r.entityType }
func (r EntityRef) ID() string       { return r.entityID }

// IsZero reports whether the reference was never set
func (r EntityRef) IsZero() bool {
	return r.entityType == "" && r.entityID == ""
}

// Equals compares two references
func (r EntityRef) Equals(other EntityRef) bool {
	return r.entityType == other.entityType && r.entityID == other.entityID
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s#%s", r.entityType, r.entityID)
}
