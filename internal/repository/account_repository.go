package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"edupanel/internal/database"
	"edupanel/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountFilter narrows a role listing. Search matches an exact id or
// phone, or a case-insensitive substring of the name.
type AccountFilter struct {
	Search string
	Skip   int64
	Limit  int64
}

type AccountRepository struct {
	users    *mongo.Collection
	students *mongo.Collection
}

func NewAccountRepository(db *database.Mongo) *AccountRepository {
	return &AccountRepository{
		users:    db.Collection(database.UsersCollection),
		students: db.Collection(database.StudentsCollection),
	}
}

func (r *AccountRepository) collection(name string) (*mongo.Collection, error) {
	switch name {
	case database.UsersCollection:
		return r.users, nil
	case database.StudentsCollection:
		return r.students, nil
	default:
		return nil, fmt.Errorf("unknown account collection %q", name)
	}
}

func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{r.users, r.students} {
		_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "id", Value: 1}}},
		})
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// FindByID looks in users first, then students. The returned account
// remembers which collection it came from.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	for _, coll := range []*mongo.Collection{r.users, r.students} {
		var account models.Account
		err := coll.FindOne(ctx, bson.M{"id": id}).Decode(&account)
		if err == nil {
			account.Source = coll.Name()
			return account, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Account{}, fmt.Errorf("find account in %s: %w", coll.Name(), err)
		}
	}
	return models.Account{}, ErrAccountNotFound
}

// TouchDevice refreshes an already registered device. It reports false
// when the device is not on the account.
func (r *AccountRepository) TouchDevice(ctx context.Context, account models.Account, device models.Device) (bool, error) {
	coll, err := r.collection(account.Source)
	if err != nil {
		return false, err
	}
	filter := bson.M{
		"_id":                                  account.ObjectID,
		"device_limitations.devices.device_id": device.DeviceID,
	}
	update := bson.M{"$set": bson.M{
		"device_limitations.devices.$.last_login":  device.LastLogin,
		"device_limitations.devices.$.ip":          device.IP,
		"device_limitations.devices.$.browser":     device.Browser,
		"device_limitations.devices.$.os":          device.OS,
		"device_limitations.devices.$.device_type": device.DeviceType,
		"device_limitations.last_login":            device.LastLogin,
	}}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("touch device: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// AppendDevice registers a new device in one conditional update: it only
// matches while the list is below allowed_devices and does not already
// hold the device. It reports false when the guard did not match.
func (r *AccountRepository) AppendDevice(ctx context.Context, account models.Account, device models.Device) (bool, error) {
	coll, err := r.collection(account.Source)
	if err != nil {
		return false, err
	}
	res, err := coll.UpdateOne(ctx, appendDeviceFilter(account, device.DeviceID), appendDeviceUpdate(device))
	if err != nil {
		return false, fmt.Errorf("append device: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func appendDeviceFilter(account models.Account, deviceID string) bson.M {
	belowCap := bson.M{"$lt": bson.A{
		bson.M{"$size": bson.M{"$ifNull": bson.A{"$device_limitations.devices", bson.A{}}}},
		bson.M{"$ifNull": bson.A{"$device_limitations.allowed_devices", 0}},
	}}
	return bson.M{
		"_id":                                  account.ObjectID,
		"device_limitations.devices.device_id": bson.M{"$ne": deviceID},
		"$expr":                                belowCap,
	}
}

// appendDeviceUpdate is a pipeline update so that a null devices field is
// treated as empty. The device goes through $literal because its fields
// are client supplied.
func appendDeviceUpdate(device models.Device) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"device_limitations.devices": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$device_limitations.devices", bson.A{}}},
				bson.A{bson.M{"$literal": device}},
			}},
			"device_limitations.last_login": bson.M{"$literal": device.LastLogin},
		}}},
	}
}

func (r *AccountRepository) List(ctx context.Context, collection string, role models.Role, filter AccountFilter) ([]models.Account, int64, error) {
	coll, err := r.collection(collection)
	if err != nil {
		return nil, 0, err
	}
	query := SearchFilter(role, filter.Search)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "id", Value: 1}}).
		SetSkip(filter.Skip).
		SetLimit(filter.Limit).
		SetProjection(bson.M{"password": 0})

	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find accounts: %w", err)
	}
	defer cursor.Close(ctx)

	accounts := make([]models.Account, 0, filter.Limit)
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, 0, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, total, nil
}

// SearchFilter builds the role listing query.
func SearchFilter(role models.Role, search string) bson.M {
	query := bson.M{"role": role}
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}
	query["$or"] = bson.A{
		bson.M{"id": search},
		bson.M{"phone": search},
		bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}},
	}
	return query
}

func (r *AccountRepository) SetAllowedDevices(ctx context.Context, collection string, role models.Role, id string, allowed int) error {
	coll, err := r.collection(collection)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"id": id, "role": role},
		bson.M{"$set": bson.M{"device_limitations.allowed_devices": allowed}},
	)
	if err != nil {
		return fmt.Errorf("set allowed devices: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// RemoveDevice pulls deviceID from the account. Pulling an absent device
// matches the account and changes nothing.
func (r *AccountRepository) RemoveDevice(ctx context.Context, collection string, role models.Role, id string, deviceID string) error {
	coll, err := r.collection(collection)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"id": id, "role": role},
		bson.M{"$pull": bson.M{"device_limitations.devices": bson.M{"device_id": deviceID}}},
	)
	if err != nil {
		return fmt.Errorf("remove device: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// NormalizeIDs rewrites numeric id fields to their decimal string form in
// both account collections and returns how many documents changed.
func (r *AccountRepository) NormalizeIDs(ctx context.Context) (int64, error) {
	filter := bson.M{"id": bson.M{"$type": bson.A{"int", "long", "double", "decimal"}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"id": bson.M{"$toString": bson.M{"$toLong": "$id"}}}}},
	}

	var total int64
	for _, coll := range []*mongo.Collection{r.users, r.students} {
		res, err := coll.UpdateMany(ctx, filter, update)
		if err != nil {
			return total, fmt.Errorf("normalize ids in %s: %w", coll.Name(), err)
		}
		total += res.ModifiedCount
	}
	return total, nil
}
