package config

import (
	"fmt"
)

type StorageKeyStruct struct{}

func NewStorageKeyStruct() *StorageKeyStruct {
	return &StorageKeyStruct{}
}

// UserProgressKey returns the storage key for a user's progress record.
func (r *StorageKeyStruct) UserProgressKey(userID int) string {
	return fmt.Sprintf("user:%d:user_progress", userID)
}

// ExamSnapshotKey returns the storage key for a user's exam recovery snapshot.
// Present only while that user has an active exam.
func (r *StorageKeyStruct) ExamSnapshotKey(userID int) string {
	return fmt.Sprintf("user:%d:exam_state_snapshot", userID)
}

// SettingsKey returns the storage key for a user's app settings.
func (r *StorageKeyStruct) SettingsKey(userID int) string {
	return fmt.Sprintf("user:%d:settings", userID)
}

var StorageKey = NewStorageKeyStruct()
