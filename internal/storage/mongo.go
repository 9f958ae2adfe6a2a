package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"cvetl/internal/dbclient"
	"cvetl/internal/etl"
)

const runLogCollection = "etl_run_logs"

// MongoStore keeps run logs in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ RunLogStore = (*MongoStore)(nil)

type runLogDoc struct {
	ID              string    `bson:"_id"`
	Pipeline        string    `bson:"pipeline"`
	StartedAt       time.Time `bson:"started_at"`
	FinishedAt      time.Time `bson:"finished_at"`
	Status          string    `bson:"status"`
	Pages           int       `bson:"pages"`
	RecordsReceived int       `bson:"records_received"`
	RowsUpserted    int       `bson:"rows_upserted"`
	Error           string    `bson:"error,omitempty"`
}

// NewMongoStore connects and makes sure the pipeline index exists.
func NewMongoStore(ctx context.Context, conn dbclient.Connection, log logrus.FieldLogger) (*MongoStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	client, dbName, err := dbclient.ConnectMongo(conn, log.WithField("component", "runlog"))
	if err != nil {
		return nil, err
	}
	coll := client.Database(dbName).Collection(runLogCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pipeline", Value: 1}, {Key: "started_at", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "create run log index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) CreateRunLog(ctx context.Context, l *etl.SyncRunLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := s.coll.InsertOne(ctx, runLogDoc{
		ID:              l.ID,
		Pipeline:        l.Pipeline,
		StartedAt:       l.StartedAt,
		FinishedAt:      l.FinishedAt,
		Status:          l.Status,
		Pages:           l.Pages,
		RecordsReceived: l.RecordsReceived,
		RowsUpserted:    l.RowsUpserted,
		Error:           l.Error,
	})
	return err
}

func (s *MongoStore) ListRunLogs(ctx context.Context, pipeline string, limit int) ([]etl.SyncRunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := bson.D{}
	if pipeline != "" {
		filter = bson.D{{Key: "pipeline", Value: pipeline}}
	}
	cur, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var docs []runLogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	logs := make([]etl.SyncRunLog, len(docs))
	for i, d := range docs {
		logs[i] = etl.SyncRunLog{
			ID:              d.ID,
			Pipeline:        d.Pipeline,
			StartedAt:       d.StartedAt,
			FinishedAt:      d.FinishedAt,
			Status:          d.Status,
			Pages:           d.Pages,
			RecordsReceived: d.RecordsReceived,
			RowsUpserted:    d.RowsUpserted,
			Error:           d.Error,
		}
	}
	return logs, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
