package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

type AgentRepository struct {
	coll *mongo.Collection
}

func NewAgentRepository(db *mongo.Database) *AgentRepository {
	return &AgentRepository{coll: db.Collection(collectionAgents)}
}

type mongoAgent struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	Phone        string             `bson:"phone,omitempty"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (m *mongoAgent) toDomain() *domain.Agent {
	return &domain.Agent{
		ID:           m.ID.Hex(),
		Email:        m.Email,
		Name:         m.Name,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (r *AgentRepository) Create(ctx context.Context, agent *domain.Agent) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAgent{
		Email:        agent.Email,
		Name:         agent.Name,
		Phone:        agent.Phone,
		PasswordHash: agent.PasswordHash,
		Role:         agent.Role,
		IsActive:     agent.IsActive,
		CreatedAt:    agent.CreatedAt.UTC(),
		UpdatedAt:    agent.UpdatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *AgentRepository) FindByID(ctx context.Context, id string) (*domain.Agent, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AgentRepository) FindByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AgentRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAgent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode agents: %w", err)
	}
	out := make([]*domain.Agent, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *AgentRepository) SetActive(ctx context.Context, id string, active bool) (*domain.Agent, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAgentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ma mongoAgent
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("set agent active: %w", err)
	}
	return ma.toDomain(), nil
}

// BindPassword is a conditional write: it only matches while the agent has no
// password, so two concurrent first logins cannot both bind.
func (r *AgentRepository) BindPassword(ctx context.Context, id, hash string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrAgentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"password_hash": ""},
			bson.M{"password_hash": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("bind password: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("bind password: %w", err)
	}
	if n == 0 {
		return domain.ErrAgentNotFound
	}
	return domain.ErrAlreadyProvisioned
}

func (r *AgentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAgent
	if err := r.coll.FindOne(ctx, filter).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("find agent: %w", err)
	}
	return ma.toDomain(), nil
}
