package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session.
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:student:%d", studentID)
}

// ProctorSessionKey returns the cache key for a proctor's login session.
func (r *CacheKeyStruct) ProctorSessionKey(proctorID int) string {
	return fmt.Sprintf("login:proctor:%d", proctorID)
}

// SessionSnapshotKey returns the snapshot key for a test. The snapshot
// persistence contract fixes this as "test-" + test id; per-student
// scoping is applied as a key prefix by the store (see StudentScope).
func (r *CacheKeyStruct) SessionSnapshotKey(testID string) string {
	return "test-" + testID
}

// StudentScope returns the key prefix that namespaces snapshot keys
// per student when multiple students share one Redis database.
func (r *CacheKeyStruct) StudentScope(studentID int) string {
	return fmt.Sprintf("student:%d:", studentID)
}

// TestPayloadKey returns the cache key for a test's student-facing payload.
func (r *CacheKeyStruct) TestPayloadKey(testID string) string {
	return fmt.Sprintf("test:%s:payload", testID)
}

// TestMonitorChannel returns the Redis PubSub channel carrying live
// integrity violation events for a test.
func (r *CacheKeyStruct) TestMonitorChannel(testID string) string {
	return fmt.Sprintf("test:%s:monitor", testID)
}

var CacheKey = NewCacheKeyStruct()
