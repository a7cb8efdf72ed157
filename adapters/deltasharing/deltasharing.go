// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package deltasharing loads tables from a Delta Sharing server.
package deltasharing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	delta_sharing "github.com/magpierre/go_delta_sharing_client"

	arrowadapter "tidyframe/adapters/arrow"
	"tidyframe/datatable"
)

// DefaultTimeout bounds every call to the sharing server.
const DefaultTimeout = 60 * time.Second

// Options selects a table, one of its data files and the part of it to load.
type Options struct {
	// Profile is the content of a Delta Sharing profile file.
	Profile string

	// Table is "share.schema.table".
	Table string

	// FileID picks a data file of the table. Empty means the first file.
	FileID string

	// Columns keeps only these columns, in this order.
	Columns []string

	// Limit keeps at most this many rows. Zero keeps all.
	Limit int

	// Timeout bounds each server call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// IsProfile reports whether content looks like a Delta Sharing profile.
func IsProfile(content string) bool {
	var profile map[string]interface{}
	if err := json.Unmarshal([]byte(content), &profile); err != nil {
		return false
	}
	_, hasVersion := profile["shareCredentialsVersion"]
	_, hasEndpoint := profile["endpoint"]
	_, hasBearerToken := profile["bearerToken"]
	return hasVersion && hasEndpoint && hasBearerToken
}

// ParseTable splits "share.schema.table".
func ParseTable(name string) (delta_sharing.Table, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return delta_sharing.Table{}, &datatable.ConfigurationError{
			Option: "table",
			Reason: fmt.Sprintf("%q is not share.schema.table", name),
		}
	}
	return delta_sharing.Table{Share: parts[0], Schema: parts[1], Name: parts[2]}, nil
}

// withTimeout derives a context for one server call.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// Load downloads one data file of a shared table.
func Load(ctx context.Context, opts Options) (*datatable.Table, error) {
	if opts.Profile == "" {
		return nil, &datatable.ConfigurationError{Option: "profile", Reason: "a sharing profile is required"}
	}
	table, err := ParseTable(opts.Table)
	if err != nil {
		return nil, err
	}

	client, err := delta_sharing.NewSharingClientV2FromString(opts.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create Delta Sharing client: %w", err)
	}

	listCtx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()
	resp, err := client.ListFilesInTable(listCtx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %s: %w", opts.Table, err)
	}

	fileID := opts.FileID
	found := false
	for _, f := range resp.AddFiles {
		if fileID == "" {
			fileID = f.Id
		}
		if f.Id == fileID {
			found = true
			break
		}
	}
	if !found {
		return nil, &datatable.ConfigurationError{
			Option: "file_id",
			Reason: fmt.Sprintf("table %s has no data file %q", opts.Table, opts.FileID),
		}
	}

	loadCtx, cancelLoad := withTimeout(ctx, opts.Timeout)
	defer cancelLoad()
	arrowTable, err := delta_sharing.LoadArrowTable(loadCtx, client, table, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", opts.Table, err)
	}
	defer arrowTable.Release()

	t, err := arrowadapter.FromArrowTable(arrowTable)
	if err != nil {
		return nil, err
	}
	t, err = Apply(t, opts.Columns, opts.Limit)
	if err != nil {
		return nil, err
	}
	md := t.Metadata()
	md["source"] = opts.Table
	md["file_id"] = fileID
	md["format"] = "delta-sharing"
	return t.WithMetadata(md), nil
}

// Apply keeps the selected columns and the first limit rows of t.
func Apply(t *datatable.Table, columns []string, limit int) (*datatable.Table, error) {
	if len(columns) > 0 {
		sel, err := t.Select(columns...)
		if err != nil {
			return nil, err
		}
		t = sel.WithMetadata(t.Metadata())
	}
	if limit > 0 && limit < t.RowCount() {
		rows := make([]int, limit)
		for i := range rows {
			rows[i] = i
		}
		t = t.TakeRows(rows).WithMetadata(t.Metadata())
	}
	return t, nil
}

// ListTables returns the "share.schema.table" names visible to a profile.
func ListTables(ctx context.Context, profile string, timeout time.Duration) ([]string, error) {
	client, err := delta_sharing.NewSharingClientV2FromString(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create Delta Sharing client: %w", err)
	}
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	// maxConcurrency 0 uses the client default
	tables, _, err := client.ListAllTables_V2(ctx, 0, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tables: %w", err)
	}
	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Share + "." + tbl.Schema + "." + tbl.Name
	}
	return names, nil
}
