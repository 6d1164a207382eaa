// Package mongodb implements the credential, session and task stores on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultTimeout = 5 * time.Second

type Storage struct {
	client   *mongo.Client
	users    *mongo.Collection
	roles    *mongo.Collection
	sessions *mongo.Collection
	tasks    *mongo.Collection
	timeout  time.Duration
}

// New connects, pings and creates the indexes the stores rely on.
func New(ctx context.Context, uri, database string, timeout time.Duration) (*Storage, error) {
	const op = "mongodb.New"

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		disconnect(client)
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}
	db := client.Database(database)
	s := &Storage{
		client:   client,
		users:    db.Collection("users"),
		roles:    db.Collection("roles"),
		sessions: db.Collection("refresh_sessions"),
		tasks:    db.Collection("tasks"),
		timeout:  timeout,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		disconnect(client)
		return nil, fmt.Errorf("%s: indexes: %w", op, err)
	}
	return s, nil
}

// disconnect releases a client that failed setup. ctx may already be spent
// by then, so it gets a fresh one.
func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = client.Disconnect(ctx)
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users.username index: %w", err)
	}

	_, err = s.sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "refresh_token", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("refresh_sessions indexes: %w", err)
	}

	_, err = s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("tasks.user_id index: %w", err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Storage) findUser(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (s *Storage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "mongodb.UserByUsername", bson.D{{Key: "username", Value: username}})
}

func (s *Storage) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "mongodb.UserByID", bson.D{{Key: "_id", Value: id}})
}

func (s *Storage) Users(ctx context.Context) ([]models.User, error) {
	const op = "mongodb.Users"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users := make([]models.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "mongodb.CreateUser"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) UpdateUserRole(ctx context.Context, id, role string) (*models.User, error) {
	const op = "mongodb.UpdateUserRole"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: role}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "mongodb.DeleteUser"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

func (s *Storage) CreateRole(ctx context.Context, role *models.Role) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}
	if _, err := s.roles.InsertOne(ctx, role); err != nil {
		return fmt.Errorf("mongodb.CreateRole: %w", err)
	}
	return nil
}

func (s *Storage) DeleteRole(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.roles.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("mongodb.DeleteRole: %w", err)
	}
	return nil
}

func (s *Storage) FindRole(ctx context.Context, name string) (*models.Role, error) {
	const op = "mongodb.FindRole"
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var role models.Role
	if err := s.roles.FindOne(ctx, bson.D{{Key: "role", Value: name}}).Decode(&role); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &role, nil
}

// isDuplicateKeyError checks for server error code 11000.
func isDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
