package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/catalogo/internal/product/domain"
)

// ReadStoreMongoDB mantiene la colección de lectura "productos".
type ReadStoreMongoDB struct {
	coll *mongo.Collection
}

var _ domain.ProductReadStore = (*ReadStoreMongoDB)(nil)

// NewReadStoreMongoDB es el constructor del almacén de lectura.
func NewReadStoreMongoDB(ctx context.Context, client *mongo.Client, dbName, collName string) (*ReadStoreMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return &ReadStoreMongoDB{coll: client.Database(dbName).Collection(collName)}, nil
}

// --- Structs de BSON para el mapeo ---
// Los nombres de campo coinciden con los documentos ya existentes en la colección.

type mongoProduct struct {
	ID       string               `bson:"_id"`
	Name     string               `bson:"Nombre"`
	Price    primitive.Decimal128 `bson:"PrecioBase"`
	Category string               `bson:"Categoria"`
	ImageURL string               `bson:"ImagenUrl"`
	Status   string               `bson:"Estado"`
	OwnerID  string               `bson:"Id_Usuario"`
}

func toMongoProduct(s domain.Snapshot) (mongoProduct, error) {
	price, err := primitive.ParseDecimal128(s.Price.String())
	if err != nil {
		return mongoProduct{}, fmt.Errorf("encode price %s: %w", s.Price, err)
	}
	return mongoProduct{
		ID:       s.ID.String(),
		Name:     s.Name,
		Price:    price,
		Category: s.Category,
		ImageURL: s.ImageURL,
		Status:   s.Status,
		OwnerID:  s.OwnerID,
	}, nil
}

func fromMongoProduct(m *mongoProduct) (domain.Snapshot, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("corrupt document id %q: %w", m.ID, err)
	}
	price, err := decimal.NewFromString(m.Price.String())
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("corrupt price for %s: %w", m.ID, err)
	}
	return domain.Snapshot{
		ID:       id,
		Name:     m.Name,
		Price:    price,
		Category: m.Category,
		ImageURL: m.ImageURL,
		Status:   m.Status,
		OwnerID:  m.OwnerID,
	}, nil
}

// --- Escritura (proyección) ---

func (r *ReadStoreMongoDB) Insert(ctx context.Context, doc domain.Snapshot) error {
	m, err := toMongoProduct(doc)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrProductAlreadyExists
		}
		return fmt.Errorf("insert product document: %w", err)
	}
	return nil
}

func (r *ReadStoreMongoDB) Upsert(ctx context.Context, doc domain.Snapshot) error {
	m, err := toMongoProduct(doc)
	if err != nil {
		return err
	}
	_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert product document: %w", err)
	}
	return nil
}

// Delete no falla si el documento no existe.
func (r *ReadStoreMongoDB) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("delete product document: %w", err)
	}
	return nil
}

// --- Lectura ---

func (r *ReadStoreMongoDB) FindByID(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	var m mongoProduct
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Snapshot{}, domain.ErrProductNotFound
		}
		return domain.Snapshot{}, err
	}
	return fromMongoProduct(&m)
}

func (r *ReadStoreMongoDB) FindAll(ctx context.Context) ([]domain.Snapshot, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoProduct
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	out := make([]domain.Snapshot, 0, len(docs))
	for i := range docs {
		s, err := fromMongoProduct(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
