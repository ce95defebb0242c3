// Package qdrant provides a Qdrant-backed vector driver over gRPC.
package qdrant

import (
	"context"
	"fmt"

	qdr "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing arbor embeddings.
	DefaultCollectionName = "arbor"

	// scrollLimit bounds how many point ids a reconcile listing can
	// return in one scroll.
	scrollLimit = uint32(100_000)
)

// QdrantDriver implements vector.Driver using the Qdrant gRPC client.
type QdrantDriver struct {
	client         *qdr.Client
	collectionName string
	logger         *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant server host.
	Host string

	// Port is the Qdrant gRPC port (typically 6334).
	Port int

	// CollectionName defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the embedding vector size, required to create the
	// collection on first use.
	Dimensions uint64
}

// NewQdrantDriver creates a new Qdrant vector driver and ensures the
// collection exists.
func NewQdrantDriver(c Config, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	client, err := qdr.NewClient(&qdr.Config{
		Host: c.Host,
		Port: c.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	ctx := context.Background()
	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("checking collection %q: %w", collectionName, err)
	}
	if !exists {
		err := client.CreateCollection(ctx, &qdr.CreateCollection{
			CollectionName: collectionName,
			VectorsConfig: qdr.NewVectorsConfig(&qdr.VectorParams{
				Size:     c.Dimensions,
				Distance: qdr.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collectionName, err)
		}
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("collection", collectionName),
	)

	return &QdrantDriver{
		client:         client,
		collectionName: collectionName,
		logger:         logger,
	}, nil
}

// Upsert stores documents with their embeddings, replacing any
// existing points with the same ids.
func (d *QdrantDriver) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdr.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdr.PointStruct{
			Id:      qdr.NewIDNum(doc.ID),
			Vectors: qdr.NewVectors(doc.Embedding...),
			Payload: qdr.NewValueMap(map[string]any{"text": doc.Text}),
		}
	}

	_, err := d.client.Upsert(ctx, &qdr.UpsertPoints{
		CollectionName: d.collectionName,
		Points:         points,
		Wait:           qdr.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted documents to qdrant",
		zap.Int("count", len(docs)),
	)
	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *QdrantDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.Match, error) {
	if topK <= 0 {
		topK = 10
	}

	points, err := d.client.Query(ctx, &qdr.QueryPoints{
		CollectionName: d.collectionName,
		Query:          qdr.NewQuery(embedding...),
		Limit:          qdr.PtrOf(uint64(topK)),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.Match, 0, len(points))
	for _, p := range points {
		results = append(results, vector.Match{
			ID:    p.GetId().GetNum(),
			Score: float64(p.GetScore()),
		})
	}

	d.logger.Debug("queried qdrant",
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Delete removes documents by their IDs.
func (d *QdrantDriver) Delete(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdr.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdr.NewIDNum(id)
	}

	_, err := d.client.Delete(ctx, &qdr.DeletePoints{
		CollectionName: d.collectionName,
		Points:         qdr.NewPointsSelector(pointIDs...),
		Wait:           qdr.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant",
		zap.Int("count", len(ids)),
	)
	return nil
}

// ListIDs scrolls the collection and returns every point id.
func (d *QdrantDriver) ListIDs(ctx context.Context) ([]uint64, error) {
	points, err := d.client.Scroll(ctx, &qdr.ScrollPoints{
		CollectionName: d.collectionName,
		Limit:          qdr.PtrOf(scrollLimit),
		WithPayload:    qdr.NewWithPayload(false),
		WithVectors:    qdr.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}

	ids := make([]uint64, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.GetId().GetNum())
	}
	return ids, nil
}

// Close releases resources held by the driver.
func (d *QdrantDriver) Close() error {
	return d.client.Close()
}
