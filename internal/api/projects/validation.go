package projects

import (
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
	"github.com/good-yellow-bee/brightminds/internal/validate"
)

// parseID turns a URL id into an ObjectID. A malformed id can never match
// a stored record, so callers treat !ok as not found.
func parseID(raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// decodeProject reads a full project payload.
func decodeProject(data []byte) (*models.Project, error) {
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ValidateProject checks the required fields of a normalized project.
func ValidateProject(p *models.Project) error {
	if p == nil {
		return errors.New("project is required")
	}
	return validate.Struct(p)
}
