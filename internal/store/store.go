package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/forgeline/artifact-gateway/internal/types"
)

// Project is a stored project record that generated artifacts attach to.
type Project struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	Artifacts []Artifact `gorm:"foreignKey:ProjectID" json:"artifacts,omitempty"`
}

// Artifact is one persisted generation result.
type Artifact struct {
	gorm.Model
	ProjectID      uint   `gorm:"index" json:"project_id"`
	Kind           string `gorm:"not null" json:"kind"`
	Content        string `json:"content"`
	Provider       string `json:"provider"`
	ModelName      string `json:"model"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	FallbackUsed   bool   `json:"fallback_used"`
}

// Store persists projects and their generated artifacts.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// Open opens (or creates) the sqlite database and migrates the schema.
func Open(dsn string, logger *logrus.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.AutoMigrate(&Project{}, &Artifact{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying database: %w", err)
	}
	return sqlDB.Close()
}

// CreateProject inserts a new project record.
func (s *Store) CreateProject(name, description string) (*Project, error) {
	project := &Project{Name: name, Description: description}
	if err := s.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject loads a project with its artifacts.
func (s *Store) GetProject(id uint) (*Project, error) {
	var project Project
	if err := s.db.Preload("Artifacts").First(&project, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load project %d: %w", id, err)
	}
	return &project, nil
}

// SaveArtifact persists a RouteResult against a project record.
func (s *Store) SaveArtifact(projectID uint, kind types.RequestKind, result *types.RouteResult) (*Artifact, error) {
	artifact := &Artifact{
		ProjectID:      projectID,
		Kind:           string(kind),
		Content:        result.Content,
		Provider:       result.Provider,
		ModelName:      result.Model,
		ResponseTimeMs: result.ResponseTimeMs,
		FallbackUsed:   result.FallbackUsed,
	}
	if err := s.db.Create(artifact).Error; err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"kind":       kind,
		"provider":   result.Provider,
	}).Debug("Artifact saved")

	return artifact, nil
}
