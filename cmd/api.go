package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/services"
	"github.com/desertthunder/festa/internal/shared"
)

// APIGet makes a direct GET request through the authenticated client
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	r.tryRestore(ctx)

	r.logger.Info("GET request", "path", path)
	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request through the authenticated client
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}
	r.tryRestore(ctx)

	r.logger.Info("POST request", "path", path)
	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, shared.Truncate(string(resp.Body), 200))
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	return r.writePlainln("%s", resp.Body)
}
