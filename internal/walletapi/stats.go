package walletapi

import "context"

type DashboardStats struct {
	TotalUsers             int64              `json:"totalUsers"`
	TotalTransactions      int64              `json:"totalTransactions"`
	ProcessingTransactions int64              `json:"processingTransactions"`
	ExternalTransactions   int64              `json:"externalTransactions"`
	VolumeByToken          map[string]float64 `json:"volumeByToken"`
}

// GetDashboardStats aggregates the admin dashboard counters. Volume is the
// summed send amount per token.
func GetDashboardStats(ctx context.Context, store Store) (*DashboardStats, error) {
	totalUsers, err := store.CountUsers(ctx, true)
	if err != nil {
		return nil, err
	}
	totalTransactions, err := store.CountTransactions(ctx, TxFilter{})
	if err != nil {
		return nil, err
	}
	processing, err := store.CountTransactions(ctx, TxFilter{Status: StatusProcessing})
	if err != nil {
		return nil, err
	}
	external := true
	externalCount, err := store.CountTransactions(ctx, TxFilter{ExternalTo: &external})
	if err != nil {
		return nil, err
	}
	volume, err := store.VolumeByToken(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalUsers:             totalUsers,
		TotalTransactions:      totalTransactions,
		ProcessingTransactions: processing,
		ExternalTransactions:   externalCount,
		VolumeByToken:          volume,
	}, nil
}
