package infrastructure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gocloud.dev/docstore"
	_ "gocloud.dev/docstore/gcpfirestore"
	_ "gocloud.dev/docstore/memdocstore"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// MirrorKeyField is the document key field. Collection URLs must name it,
// e.g. mem://downloads/doc_id or firestore://...?name_field=doc_id
const MirrorKeyField = "doc_id"

// MirrorTimeLayout is how download_time is stored in mirror documents
const MirrorTimeLayout = "2006-01-02 15:04:05"

// DocstoreHistoryMirror implements domain.HistoryMirror on a gocloud
// docstore collection
type DocstoreHistoryMirror struct {
	coll *docstore.Collection
}

// OpenDocstoreHistoryMirror opens the collection at collectionURL
func OpenDocstoreHistoryMirror(ctx context.Context, collectionURL string) (*DocstoreHistoryMirror, error) {
	coll, err := docstore.OpenCollection(ctx, collectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror collection: %w", err)
	}
	return NewDocstoreHistoryMirror(coll), nil
}

// NewDocstoreHistoryMirror wraps an already opened collection
func NewDocstoreHistoryMirror(coll *docstore.Collection) *DocstoreHistoryMirror {
	return &DocstoreHistoryMirror{coll: coll}
}

// Put writes a new document for record. The relational id is not copied.
func (m *DocstoreHistoryMirror) Put(ctx context.Context, record *domain.HistoryRecord) error {
	return m.coll.Put(ctx, MirrorDocument(record))
}

// Close closes the collection
func (m *DocstoreHistoryMirror) Close() error {
	return m.coll.Close()
}

// MirrorDocument is the flat document stored for a history record
func MirrorDocument(record *domain.HistoryRecord) map[string]interface{} {
	return map[string]interface{}{
		MirrorKeyField:  uuid.New().String(),
		"title":         record.Title,
		"url":           record.URL,
		"format":        string(record.Format),
		"size":          record.Size,
		"path":          record.Path,
		"download_time": record.DownloadTime.Format(MirrorTimeLayout),
	}
}
