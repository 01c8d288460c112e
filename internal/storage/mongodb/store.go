// Package mongodb persists records in MongoDB. Ledger writes run inside
// multi-document transactions, so the server must be a replica set or a
// sharded cluster.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const (
	usersCollection        = "users"
	employeesCollection    = "employees"
	adminsCollection       = "admins"
	transactionsCollection = "transactions"
)

// Store is a MongoDB-backed storage.Store.
type Store struct {
	client       *mongo.Client
	users        *mongo.Collection
	employees    *mongo.Collection
	admins       *mongo.Collection
	transactions *mongo.Collection
}

// NewStore connects to uri, selects database and ensures indexes exist.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:       client,
		users:        db.Collection(usersCollection),
		employees:    db.Collection(employeesCollection),
		admins:       db.Collection(adminsCollection),
		transactions: db.Collection(transactionsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	uniquePhone := mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{s.users, s.employees, s.admins} {
		if _, err := coll.Indexes().CreateOne(ctx, uniquePhone); err != nil {
			return fmt.Errorf("create phone index on %s: %w", coll.Name(), err)
		}
	}
	history := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}
	if _, err := s.transactions.Indexes().CreateOne(ctx, history); err != nil {
		return fmt.Errorf("create history index: %w", err)
	}
	return nil
}

// Ping checks connectivity to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = storage.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return models.User{}, insertErr(err)
	}
	return user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id})
}

func (s *Store) FindUserByPhone(ctx context.Context, phone string) (models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"phone": phone})
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, s.users, bson.M{}, bson.D{{Key: "createdAt", Value: 1}})
}

func (s *Store) CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	if employee.ID == "" {
		employee.ID = storage.NewID()
	}
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	if _, err := s.employees.InsertOne(ctx, employee); err != nil {
		return models.Employee{}, insertErr(err)
	}
	return employee, nil
}

func (s *Store) FindEmployeeByID(ctx context.Context, id string) (models.Employee, error) {
	return findOne[models.Employee](ctx, s.employees, bson.M{"_id": id})
}

func (s *Store) FindEmployeeByPhone(ctx context.Context, phone string) (models.Employee, error) {
	return findOne[models.Employee](ctx, s.employees, bson.M{"phone": phone})
}

func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return findAll[models.Employee](ctx, s.employees, bson.M{}, bson.D{{Key: "createdAt", Value: 1}})
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.employees.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error) {
	if admin.ID == "" {
		admin.ID = storage.NewID()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	if _, err := s.admins.InsertOne(ctx, admin); err != nil {
		return models.Admin{}, insertErr(err)
	}
	return admin, nil
}

func (s *Store) FindAdminByPhone(ctx context.Context, phone string) (models.Admin, error) {
	return findOne[models.Admin](ctx, s.admins, bson.M{"phone": phone})
}

func (s *Store) Deposit(ctx context.Context, userID string, amount int64) (models.Transaction, error) {
	var out models.Transaction
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		u, err := s.credit(sc, userID, amount)
		if err != nil {
			return err
		}
		out = storage.NewTransaction(u.ID, models.TxDeposit, models.Credit, amount, u.Balance)
		return s.record(sc, out)
	})
	return out, err
}

func (s *Store) Withdraw(ctx context.Context, userID string, amount int64) (models.Transaction, error) {
	var out models.Transaction
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		u, err := s.debit(sc, userID, amount)
		if err != nil {
			return err
		}
		out = storage.NewTransaction(u.ID, models.TxWithdraw, models.Debit, amount, u.Balance)
		return s.record(sc, out)
	})
	return out, err
}

func (s *Store) Transfer(ctx context.Context, fromID, toID string, amount int64) (models.Transaction, models.Transaction, error) {
	var debitTx, creditTx models.Transaction
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		from, err := s.debit(sc, fromID, amount)
		if err != nil {
			return err
		}
		to, err := s.credit(sc, toID, amount)
		if err != nil {
			return err
		}
		debitTx, creditTx = storage.NewTransferPair(from, to, amount)
		if err := s.record(sc, debitTx); err != nil {
			return err
		}
		return s.record(sc, creditTx)
	})
	if err != nil {
		return models.Transaction{}, models.Transaction{}, err
	}
	return debitTx, creditTx, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return findAll[models.Transaction](ctx, s.transactions, bson.M{"userId": userID}, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
}

func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// debit applies a conditional decrement: the filter only matches while the
// balance still covers amount.
func (s *Store) debit(ctx context.Context, userID string, amount int64) (models.User, error) {
	u, err := s.adjust(ctx, bson.M{"_id": userID, "balance": bson.M{"$gte": amount}}, -amount)
	if !errors.Is(err, storage.ErrNotFound) {
		return u, err
	}
	return models.User{}, s.missingOr(ctx, userID, storage.ErrInsufficientFunds)
}

// credit is the mirror of debit: it only matches while the balance can take
// amount without passing storage.MaxBalance.
func (s *Store) credit(ctx context.Context, userID string, amount int64) (models.User, error) {
	u, err := s.adjust(ctx, bson.M{"_id": userID, "balance": bson.M{"$lte": storage.MaxBalance - amount}}, amount)
	if !errors.Is(err, storage.ErrNotFound) {
		return u, err
	}
	return models.User{}, s.missingOr(ctx, userID, storage.ErrBalanceOverflow)
}

func (s *Store) missingOr(ctx context.Context, userID string, guardErr error) error {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return guardErr
}

func (s *Store) adjust(ctx context.Context, filter bson.M, delta int64) (models.User, error) {
	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.users.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"balance": delta}}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, storage.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update balance: %w", err)
	}
	return u, nil
}

func (s *Store) record(ctx context.Context, t models.Transaction) error {
	if _, err := s.transactions.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, storage.ErrNotFound
	}
	if err != nil {
		return out, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	return out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D) ([]T, error) {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrAlreadyExists
	}
	return err
}
