package model

import "time"

// ClientTag is a tenant-scoped label attachable to clients.
type ClientTag struct {
	ID       int    `db:"id" json:"id"`
	TenantID int    `db:"tenant_id" json:"tenant_id"`
	Name     string `db:"name" json:"name"`
}

// ClientTagAssignment is a (client, tag) membership row, unique per pair.
type ClientTagAssignment struct {
	ID       int `db:"id" json:"id"`
	ClientID int `db:"client_id" json:"client_id"`
	TagID    int `db:"tag_id" json:"tag_id"`
}

// SegmentFilter is the filter_criteria payload stored on a segment.
// A client matches when it holds every tag in TagIDs; an empty list
// degrades to "all clients".
type SegmentFilter struct {
	TagIDs []int `json:"tagIds"`
}

// ClientSegment is a named, tag-intersection audience filter.
type ClientSegment struct {
	ID             int           `db:"id" json:"id"`
	TenantID       int           `db:"tenant_id" json:"tenant_id"`
	Name           string        `db:"name" json:"name"`
	FilterCriteria SegmentFilter `db:"filter_criteria" json:"filter_criteria"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
