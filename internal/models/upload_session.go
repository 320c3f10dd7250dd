package models

import "time"

// UploadSession is the durable manifest behind a deep link. The file lists are
// parallel and immutable once created; only AccessCount changes.
type UploadSession struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	SessionID         string    `gorm:"size:100;uniqueIndex;not null"`
	OwnerID           int64     `gorm:"index;not null"`
	FileIDs           []string  `gorm:"serializer:json;type:text;not null"`
	FileKinds         []string  `gorm:"serializer:json;type:text;not null"`
	Captions          []string  `gorm:"serializer:json;type:text;not null"`
	FileCount         int       `gorm:"not null;default:0"`
	ProtectContent    bool      `gorm:"not null;default:false"`
	AutoDeleteMinutes int       `gorm:"default:0"`
	AccessCount       int       `gorm:"default:0"`
	CreatedAt         time.Time
}

// NewUploadSession builds a session from manifest items
func NewUploadSession(sessionID string, ownerID int64, items []FileItem, protect bool, autoDeleteMinutes int) *UploadSession {
	s := &UploadSession{
		SessionID:         sessionID,
		OwnerID:           ownerID,
		FileIDs:           make([]string, 0, len(items)),
		FileKinds:         make([]string, 0, len(items)),
		Captions:          make([]string, 0, len(items)),
		FileCount:         len(items),
		ProtectContent:    protect,
		AutoDeleteMinutes: autoDeleteMinutes,
	}
	for _, item := range items {
		s.FileIDs = append(s.FileIDs, item.FileID)
		s.FileKinds = append(s.FileKinds, string(item.Kind))
		s.Captions = append(s.Captions, item.Caption)
	}
	return s
}

// Items returns the manifest in upload order. Rows written before kinds were
// stored fall back to document; missing captions read as empty.
func (s *UploadSession) Items() []FileItem {
	items := make([]FileItem, len(s.FileIDs))
	for i, fileID := range s.FileIDs {
		item := FileItem{FileID: fileID, Kind: MediaDocument}
		if i < len(s.FileKinds) && s.FileKinds[i] != "" {
			item.Kind = MediaKind(s.FileKinds[i])
		}
		if i < len(s.Captions) {
			item.Caption = s.Captions[i]
		}
		items[i] = item
	}
	return items
}

// EffectiveProtection is what a requester actually gets: the owner always
// receives unprotected copies
func (s *UploadSession) EffectiveProtection(requesterID int64) bool {
	return s.ProtectContent && requesterID != s.OwnerID
}
