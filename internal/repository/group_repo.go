package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/blastroyale/partysync/internal/model"
)

// GroupRepo persists directory groups.
type GroupRepo interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	// FindByAttributes returns groups whose search attributes equal every
	// entry of the filter.
	FindByAttributes(ctx context.Context, filter map[string]string) ([]*model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
}

type groupRepo struct {
	collection *mongo.Collection
}

// NewGroupRepo creates a group repository backed by the given database.
func NewGroupRepo(db *mongo.Database) GroupRepo {
	return &groupRepo{
		collection: db.Collection("groups"),
	}
}

func (r *groupRepo) Create(ctx context.Context, group *model.Group) error {
	_, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&group)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Group not found
		}
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) FindByAttributes(ctx context.Context, filter map[string]string) ([]*model.Group, error) {
	query := bson.M{}
	for k, v := range filter {
		query["searchAttributes."+k] = v
	}

	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []*model.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepo) Update(ctx context.Context, group *model.Group) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"id": group.ID}, group)
	return err
}

func (r *groupRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}
