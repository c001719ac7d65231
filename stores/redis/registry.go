package redis

import (
	"context"
	"flyer-server/core"
	"fmt"
	"sort"
	"time"

	lowimpl "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultKey is the sorted set holding room ids scored by last activity.
const DefaultKey = "flyer:rooms"

type Conf struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Registry is a RoomRegistry shared by every server instance that points at the
// same redis database.
type Registry struct {
	internal *lowimpl.Client
	key      string
}

var _ core.RoomRegistry = (*Registry)(nil)

func NewRegistry(conf Conf) *Registry {
	key := conf.Key
	if key == "" {
		key = DefaultKey
	}
	logrus.WithFields(logrus.Fields{"addr": conf.Addr, "db": conf.DB, "key": key}).Info("Use redis room registry")
	return &Registry{
		internal: lowimpl.NewClient(&lowimpl.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
		key: key,
	}
}

func (r *Registry) Ping(ctx context.Context) error {
	return r.internal.Ping(ctx).Err()
}

func (r *Registry) Close() error {
	if r.internal == nil {
		return nil
	}
	return r.internal.Close()
}

func (r *Registry) TouchRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	return r.internal.ZAdd(ctx, r.key, lowimpl.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: roomID,
	}).Err()
}

func (r *Registry) ListRooms(ctx context.Context) ([]core.Room, error) {
	zs, err := r.internal.ZRevRangeWithScores(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	rooms := make([]core.Room, 0, len(zs))
	for _, z := range zs {
		rooms = append(rooms, core.Room{ID: fmt.Sprint(z.Member), LastActive: int64(z.Score)})
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].LastActive == rooms[j].LastActive {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].LastActive > rooms[j].LastActive
	})
	return rooms, nil
}

func (r *Registry) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	return r.internal.ZRem(ctx, r.key, roomID).Err()
}
