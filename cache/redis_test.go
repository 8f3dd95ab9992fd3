package cache

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestRedisCache_Get_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectGet("test:mykey").SetVal("myvalue")

	val, ok := cache.Get("mykey")
	if !ok {
		t.Error("Expected cache hit")
	}
	if val != "myvalue" {
		t.Errorf("Expected 'myvalue', got %q", val)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_Get_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectGet("test:mykey").RedisNil()

	val, ok := cache.Get("mykey")
	if ok {
		t.Error("Expected cache miss")
	}
	if val != "" {
		t.Errorf("Expected empty string, got %q", val)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_Get_ErrorIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectGet("test:mykey").SetErr(errors.New("connection reset"))

	if _, ok := cache.Get("mykey"); ok {
		t.Error("Expected a transport error to read as a miss")
	}
}

func TestRedisCache_SetIfAbsent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectSetNX("test:mykey", "myvalue", 3600*time.Second).SetVal(true)

	stored, err := cache.SetIfAbsent("mykey", "myvalue")
	if err != nil {
		t.Errorf("SetIfAbsent failed: %v", err)
	}
	if !stored {
		t.Error("Expected value to be stored")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_SetIfAbsent_Existing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 0, "test:")

	mock.ExpectSetNX("test:mykey", "other", 0).SetVal(false)

	stored, err := cache.SetIfAbsent("mykey", "other")
	if err != nil {
		t.Errorf("SetIfAbsent failed: %v", err)
	}
	if stored {
		t.Error("Existing key should not be replaced")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_KeyPrefix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "gotlive:v1:")

	mock.ExpectGet("gotlive:v1:hash123").SetVal("translated")

	val, ok := cache.Get("hash123")
	if !ok || val != "translated" {
		t.Errorf("Expected 'translated', got %q (ok=%v)", val, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_DefaultPrefix(t *testing.T) {
	db, _ := redismock.NewClientMock()
	defer db.Close()

	if p := NewRedisCacheFromClient(db, 0, "").Prefix(); p != "gotlive:" {
		t.Errorf("Expected default prefix, got %q", p)
	}
}

func TestSessionPrefix(t *testing.T) {
	if got := sessionPrefix("", "s1"); got != "gotlive:s1:" {
		t.Errorf("sessionPrefix = %q", got)
	}
	if got := sessionPrefix("app:", "s1"); !strings.HasPrefix(got, "app:s1") {
		t.Errorf("sessionPrefix = %q", got)
	}
}

func TestRedisCache_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	mock.ExpectPing().SetVal("PONG")

	if err := cache.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisCache_Close(t *testing.T) {
	db, _ := redismock.NewClientMock()

	cache := NewRedisCacheFromClient(db, 3600, "test:")

	if err := cache.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
