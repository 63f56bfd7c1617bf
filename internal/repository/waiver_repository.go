package repository

import (
	"database/sql"

	"github.com/lib/pq"
)

type WaiverRepositoryInterface interface {
	LatestConsentByClients(tenantID int, clientIDs []int) (map[int]bool, error)
}

type WaiverRepository struct {
	DB *sql.DB
}

// LatestConsentByClients returns, for each client that has at least one
// waiver, the sms_consent flag of their most recent waiver. Clients with
// no waiver are absent from the map, which callers read as no consent.
func (r *WaiverRepository) LatestConsentByClients(tenantID int, clientIDs []int) (map[int]bool, error) {
	consent := map[int]bool{}
	if len(clientIDs) == 0 {
		return consent, nil
	}

	query := `
        SELECT client_id, sms_consent
        FROM waivers
        WHERE tenant_id=$1 AND client_id = ANY($2)
        ORDER BY signed_at DESC, id DESC
    `
	rows, err := r.DB.Query(query, tenantID, pq.Array(clientIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var clientID int
		var smsConsent bool
		if err := rows.Scan(&clientID, &smsConsent); err != nil {
			return nil, err
		}
		// Rows are newest-first; keep only the first per client.
		if _, seen := consent[clientID]; !seen {
			consent[clientID] = smsConsent
		}
	}
	return consent, rows.Err()
}

var _ WaiverRepositoryInterface = (*WaiverRepository)(nil)
