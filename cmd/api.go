package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/faves/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request, optionally with the stored token
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var token string
	if cmd.Bool("auth") {
		tokens, err := r.tokenStore()
		if err != nil {
			return err
		}
		if token, err = tokens.Token(ctx); err != nil {
			return err
		}
		if token == "" {
			return fmt.Errorf("%w: no stored token", shared.ErrNotAuthenticated)
		}
	}

	r.logger.Info("GET request", "path", path, "auth", token != "")

	resp, err := r.api.Get(ctx, path, token)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
