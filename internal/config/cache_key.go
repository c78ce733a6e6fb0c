package config

import (
	"strconv"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RecentResultsKey returns the hash caching recent result listings
func (r *CacheKeyStruct) RecentResultsKey() string {
	return "results:recent"
}

// RecentResultsField returns the hash field for a listing of limit rows
func (r *CacheKeyStruct) RecentResultsField(limit int) string {
	return strconv.Itoa(limit)
}

// ResultsChannel returns the Redis PubSub channel a persisted result batch is announced on
func (r *CacheKeyStruct) ResultsChannel() string {
	return "results:recorded"
}

var CacheKey = NewCacheKeyStruct()
