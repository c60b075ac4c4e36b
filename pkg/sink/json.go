package sink

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/atlaspack/pkg/atlas"
)

// RenderJSON renders the layout as indented JSON, the format
// atlas.ReadFile reads back.
func RenderJSON(l atlas.Layout) ([]byte, error) {
	return atlas.Marshal(l)
}

// RenderBSON renders the layout as a BSON document, ready to be stored in
// a document database.
func RenderBSON(l atlas.Layout) ([]byte, error) {
	data, err := bson.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal bson: %w", err)
	}
	return data, nil
}
