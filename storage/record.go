package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"rental-normalizer/models"
)

// encodeDocuments renders the JSON columns shared by the SQL backends.
func encodeDocuments(l *models.StoredListing) (listing, sources []byte, err error) {
	listing, err = json.Marshal(l.Listing)
	if err != nil {
		return nil, nil, fmt.Errorf("encode listing %s: %w", l.ID, err)
	}
	sources, err = json.Marshal(l.Sources)
	if err != nil {
		return nil, nil, fmt.Errorf("encode sources %s: %w", l.ID, err)
	}
	return listing, sources, nil
}

// decodeDocuments fills the JSON-backed parts of l. Source numbers stay
// json.Number so reprocessing sees what the source sent.
func decodeDocuments(l *models.StoredListing, listing, sources []byte) error {
	if err := json.Unmarshal(listing, &l.Listing); err != nil {
		return fmt.Errorf("decode listing %s: %w", l.ID, err)
	}
	if len(sources) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(sources))
	dec.UseNumber()
	if err := dec.Decode(&l.Sources); err != nil {
		return fmt.Errorf("decode sources %s: %w", l.ID, err)
	}
	return nil
}
