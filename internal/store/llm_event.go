package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendLLMEvent(ctx context.Context, data LLMEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_events
			(provider, model, purpose, input_tokens, output_tokens, latency_ms,
			 success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		boolToInt(data.Success), data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("append llm event: %w", err)
	}
	return nil
}

const llmEventColumns = `id, timestamp, provider, model, purpose,
	input_tokens, output_tokens, latency_ms, success, error_message,
	request_body, response_body`

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	q := `SELECT ` + llmEventColumns + ` FROM llm_events ORDER BY id DESC`
	args := []any{}
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	defer rows.Close()

	var out []LLMEventRecord
	for rows.Next() {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+llmEventColumns+` FROM llm_events WHERE id = ?`, id)

	rec, err := scanLLMEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func scanLLMEvent(row rowScanner) (*LLMEventRecord, error) {
	var rec LLMEventRecord
	var success int
	err := row.Scan(
		&rec.ID, &rec.Timestamp, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &success,
		&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody,
	)
	if err != nil {
		return nil, err
	}
	rec.Success = success != 0
	return &rec, nil
}

func (r *eventRepo) UsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT purpose, model, COUNT(*),
			SUM(input_tokens), SUM(output_tokens),
			CAST(AVG(latency_ms) AS INTEGER)
		FROM llm_events
		GROUP BY purpose, model
		ORDER BY purpose`,
	)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageStats
	for rows.Next() {
		var st LLMUsageStats
		if err := rows.Scan(&st.Purpose, &st.Model, &st.Calls,
			&st.InputTokens, &st.OutputTokens, &st.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
