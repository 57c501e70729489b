package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"edupanel/internal/config"
	"edupanel/internal/models"
	"edupanel/internal/queue"
	"edupanel/internal/repository"
	"edupanel/internal/security"
	"edupanel/internal/storage"
)

var (
	hashOnce sync.Once
	hashed   string
)

const testPassword = "correct horse"

// testHash is an argon2id hash of testPassword with cheap parameters.
func testHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		var err error
		hashed, err = security.HashPasswordWithParams(testPassword, security.Argon2Params{
			Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16,
		})
		if err != nil {
			panic(err)
		}
	})
	return hashed
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Timezone:    "UTC",
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			TokenTTL:          6 * time.Hour,
			PrivilegedRoles:   []string{"developer"},
			DeviceExemptRoles: []string{"admin", "developer"},
		},
		Features: config.FeatureConfig{DeviceLimiting: true, SubscriptionGating: true},
		Uploads: config.UploadConfig{
			KeyPrefix:    "lessons",
			MaxBytes:     1 << 20,
			AllowedTypes: []string{"video/mp4", "video/webm"},
			PresignTTL:   time.Hour,
			OrphanTTL:    24 * time.Hour,
		},
		Lessons: config.LessonConfig{MaxVideos: 3},
	}
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	appends  int
}

func newFakeAccounts(accounts ...models.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: map[string]*models.Account{}}
	for i := range accounts {
		acc := accounts[i]
		f.accounts[acc.ID] = &acc
	}
	return f
}

func (f *fakeAccounts) get(id string) models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(*f.accounts[id])
}

func clone(acc models.Account) models.Account {
	acc.DeviceLimitations.Devices = append([]models.Device(nil), acc.DeviceLimitations.Devices...)
	return acc
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return clone(*acc), nil
}

func (f *fakeAccounts) TouchDevice(_ context.Context, account models.Account, device models.Device) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.accounts[account.ID]
	for i := range acc.DeviceLimitations.Devices {
		d := &acc.DeviceLimitations.Devices[i]
		if d.DeviceID == device.DeviceID {
			d.LastLogin = device.LastLogin
			d.IP = device.IP
			acc.DeviceLimitations.LastLogin = device.LastLogin
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccounts) AppendDevice(_ context.Context, account models.Account, device models.Device) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.accounts[account.ID]
	limits := &acc.DeviceLimitations
	if limits.HasDevice(device.DeviceID) || len(limits.Devices) >= limits.AllowedDevices {
		return false, nil
	}
	limits.Devices = append(limits.Devices, device)
	limits.LastLogin = device.LastLogin
	f.appends++
	return true, nil
}

func (f *fakeAccounts) List(_ context.Context, _ string, role models.Role, filter repository.AccountFilter) ([]models.Account, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Account
	for _, acc := range f.accounts {
		if acc.Role != role {
			continue
		}
		s := filter.Search
		if s != "" && acc.ID != s && acc.Phone != s && !strings.Contains(strings.ToLower(acc.Name), strings.ToLower(s)) {
			continue
		}
		matched = append(matched, clone(*acc))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := min(filter.Skip, total)
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (f *fakeAccounts) find(role models.Role, id string) (*models.Account, error) {
	acc, ok := f.accounts[id]
	if !ok || acc.Role != role {
		return nil, repository.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeAccounts) SetAllowedDevices(_ context.Context, _ string, role models.Role, id string, allowed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, err := f.find(role, id)
	if err != nil {
		return err
	}
	acc.DeviceLimitations.AllowedDevices = allowed
	return nil
}

func (f *fakeAccounts) RemoveDevice(_ context.Context, _ string, role models.Role, id string, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, err := f.find(role, id)
	if err != nil {
		return err
	}
	kept := acc.DeviceLimitations.Devices[:0]
	for _, d := range acc.DeviceLimitations.Devices {
		if d.DeviceID != deviceID {
			kept = append(kept, d)
		}
	}
	acc.DeviceLimitations.Devices = kept
	return nil
}

type fakeSubscription struct {
	sub         *models.Subscription
	deactivated int
}

func (f *fakeSubscription) Get(context.Context) (models.Subscription, error) {
	if f.sub == nil {
		return models.Subscription{}, repository.ErrSubscriptionNotFound
	}
	return *f.sub, nil
}

func (f *fakeSubscription) Deactivate(context.Context) error {
	f.deactivated++
	if f.sub != nil {
		f.sub.Active = false
	}
	return nil
}

// fakeLimiter counts hits per key against a fixed limit.
type fakeLimiter struct {
	limit int
	hits  map[string]int
}

func newFakeLimiter(limit int) *fakeLimiter {
	return &fakeLimiter{limit: limit, hits: map[string]int{}}
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	return f.hits[key] < f.limit, nil
}

func (f *fakeLimiter) Hit(_ context.Context, key string) error {
	f.hits[key]++
	return nil
}

type fakeLessons struct {
	lessons map[primitive.ObjectID]models.Lesson
}

func newFakeLessons() *fakeLessons {
	return &fakeLessons{lessons: map[primitive.ObjectID]models.Lesson{}}
}

func (f *fakeLessons) Create(_ context.Context, lesson models.Lesson) (models.Lesson, error) {
	lesson.ID = primitive.NewObjectID()
	lesson.CreatedAt = time.Now()
	lesson.UpdatedAt = lesson.CreatedAt
	f.lessons[lesson.ID] = lesson
	return lesson, nil
}

func (f *fakeLessons) Update(_ context.Context, id primitive.ObjectID, lesson models.Lesson) (models.Lesson, error) {
	existing, ok := f.lessons[id]
	if !ok {
		return models.Lesson{}, repository.ErrLessonNotFound
	}
	lesson.ID = id
	lesson.CreatedAt = existing.CreatedAt
	lesson.UpdatedAt = time.Now()
	f.lessons[id] = lesson
	return lesson, nil
}

func (f *fakeLessons) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.lessons[id]; !ok {
		return repository.ErrLessonNotFound
	}
	delete(f.lessons, id)
	return nil
}

func (f *fakeLessons) GetByID(_ context.Context, id primitive.ObjectID) (models.Lesson, error) {
	lesson, ok := f.lessons[id]
	if !ok {
		return models.Lesson{}, repository.ErrLessonNotFound
	}
	return lesson, nil
}

func (f *fakeLessons) FindByGradeWeek(_ context.Context, grade string, week int) (models.Lesson, error) {
	for _, lesson := range f.lessons {
		if lesson.Grade == grade && lesson.Week == week {
			return lesson, nil
		}
	}
	return models.Lesson{}, repository.ErrLessonNotFound
}

func (f *fakeLessons) List(_ context.Context, filter repository.LessonFilter) ([]models.Lesson, int64, error) {
	var out []models.Lesson
	for _, lesson := range f.lessons {
		if filter.Grade == "" || lesson.Grade == filter.Grade {
			out = append(out, lesson)
		}
	}
	return out, int64(len(out)), nil
}

type fakePending struct {
	tracked   map[string]time.Time
	forgotten []string
}

func newFakePending() *fakePending {
	return &fakePending{tracked: map[string]time.Time{}}
}

func (f *fakePending) Track(_ context.Context, key string, at time.Time) error {
	f.tracked[key] = at
	return nil
}

func (f *fakePending) Forget(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.tracked, key)
		f.forgotten = append(f.forgotten, key)
	}
	return nil
}

type putCall struct {
	key         string
	body        []byte
	size        int64
	contentType string
}

// fakeObjects is an in-memory object store.
type fakeObjects struct {
	objects map[string]storage.ObjectInfo
	data    map[string][]byte
	puts    []putCall
	err     error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string]storage.ObjectInfo{}, data: map[string][]byte{}}
}

func (f *fakeObjects) add(key, contentType string, body []byte) {
	f.objects[key] = storage.ObjectInfo{Key: key, Size: int64(len(body)), ContentType: contentType}
	f.data[key] = body
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.puts = append(f.puts, putCall{key: key, body: body, size: size, contentType: contentType})
	f.add(key, contentType, body)
	return f.objects[key], nil
}

func (f *fakeObjects) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.test/" + key + "?signature=x", nil
}

func (f *fakeObjects) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	if f.err != nil {
		return storage.ObjectInfo{}, f.err
	}
	info, ok := f.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return info, nil
}

func (f *fakeObjects) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	info, err := f.Stat(ctx, key)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return io.NopCloser(bytes.NewReader(f.data[key])), info, nil
}

func (f *fakeObjects) GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	if _, err := f.Stat(ctx, key); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(f.data[key][start : end+1])), nil
}

type fakeQueue struct {
	tasks []queue.Task
}

func (f *fakeQueue) Enqueue(_ context.Context, task queue.Task) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
