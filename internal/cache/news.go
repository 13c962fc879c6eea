package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"news-desk/internal/metrics"
	"news-desk/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const newsKeyPrefix = "news:"

// 連續失敗達 breakerTrips 次後停止呼叫 Redis，breakerCooldown 後再試
const (
	breakerTrips    = 5
	breakerCooldown = 30 * time.Second
)

// NewsCache 單筆新聞的 read-through 快取；nil 表示停用。
// 所有 Redis 錯誤只記錄，不影響請求結果
type NewsCache struct {
	c       Cache
	ttl     time.Duration
	log     logrus.FieldLogger
	breaker *gobreaker.CircuitBreaker
}

// NewNewsCache c 為 nil 時回傳 nil (停用快取)
func NewNewsCache(c Cache, ttl time.Duration, log logrus.FieldLogger) *NewsCache {
	if c == nil {
		return nil
	}
	return &NewsCache{
		c:       c,
		ttl:     ttl,
		log:     log,
		breaker: newBreaker(log),
	}
}

func newBreaker(log logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-news",
		MaxRequests: 1,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		// cache miss 不算失敗
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Redis circuit breaker 狀態改變")
		},
	})
}

func newsKey(id int) string {
	return newsKeyPrefix + strconv.Itoa(id)
}

// call 經過 circuit breaker 執行 Redis 指令
func (n *NewsCache) call(fn func() error) error {
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// warn 斷路中的錯誤只記 debug，避免洗版
func (n *NewsCache) warn(err error, id int, msg string) {
	entry := n.log.WithError(err).WithField("news_id", id)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		entry.Debug(msg)
		return
	}
	entry.Warn(msg)
}

// Get 命中時回傳 (news, true)
func (n *NewsCache) Get(ctx context.Context, id int) (*model.News, bool) {
	if n == nil {
		return nil, false
	}
	var raw []byte
	err := n.call(func() error {
		var err error
		raw, err = n.c.Get(ctx, newsKey(id)).Bytes()
		return err
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookup("miss")
		} else {
			metrics.CacheLookup("error")
			n.warn(err, id, "讀取新聞快取失敗")
		}
		return nil, false
	}
	var news model.News
	if err := json.Unmarshal(raw, &news); err != nil {
		metrics.CacheLookup("error")
		n.log.WithError(err).WithField("news_id", id).Warn("新聞快取內容無法解析")
		return nil, false
	}
	metrics.CacheLookup("hit")
	return &news, true
}

// Put 寫入快取
func (n *NewsCache) Put(ctx context.Context, news *model.News) {
	if n == nil || news == nil {
		return
	}
	raw, err := json.Marshal(news)
	if err != nil {
		n.log.WithError(err).WithField("news_id", news.ID).Warn("新聞快取序列化失敗")
		return
	}
	if err := n.call(func() error {
		return n.c.Set(ctx, newsKey(news.ID), raw, n.ttl).Err()
	}); err != nil {
		n.warn(err, news.ID, "寫入新聞快取失敗")
	}
}

// Invalidate 更新或刪除新聞後移除快取
func (n *NewsCache) Invalidate(ctx context.Context, id int) {
	if n == nil {
		return
	}
	if err := n.call(func() error {
		return n.c.Del(ctx, newsKey(id)).Err()
	}); err != nil {
		n.warn(err, id, "移除新聞快取失敗")
	}
}
