package service

import (
	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

// SnapshotRepository is re-exported from domain for convenience
type SnapshotRepository = domain.SnapshotRepository
