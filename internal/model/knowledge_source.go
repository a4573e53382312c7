package model

import "time"

// KnowledgeSource is an ingested document/URL used to ground AI responses.
// Status moves pending -> processed/failed through the ingestion worker.
type KnowledgeSource struct {
	ID               string    `json:"id" gorm:"primaryKey;type:text"`
	OrganizationID   string    `json:"organization_id" gorm:"column:organization_id;index;type:text" validate:"required"`
	Type             string    `json:"type" gorm:"type:text" validate:"required,oneof=pdf url text"`
	Title            string    `json:"title" gorm:"type:text" validate:"required"`
	OriginalFilename string    `json:"original_filename,omitempty" gorm:"column:original_filename;type:text"`
	OriginalURL      string    `json:"original_url,omitempty" gorm:"column:original_url;type:text"`
	StoragePath      string    `json:"storage_path,omitempty" gorm:"column:storage_path;type:text"`
	ExtractedText    string    `json:"extracted_text,omitempty" gorm:"column:extracted_text;type:text"`
	Status           string    `json:"status" gorm:"type:text;default:pending"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (KnowledgeSource) TableName() string {
	return "knowledge_sources"
}
