package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/faves/internal/formatter"
	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/shared"
	"github.com/desertthunder/faves/internal/tasks"
	"github.com/urfave/cli/v3"
)

// productView is the JSON shape of one listed product.
type productView struct {
	ID         models.ID  `json:"id"`
	Name       string     `json:"name"`
	FavoriteID *models.ID `json:"favorite_id,omitempty"`
}

// Products lists the catalogue. When a session is stored, favorites are marked.
func (r *Runner) Products(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	outputPath := cmd.String("output")

	c, err := r.controller()
	if err != nil {
		return err
	}
	c.Run(ctx, c.Start()...)

	state := c.State()
	if state.Message != "" {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, state.Message)
	}
	rows := state.Rows()

	if format == "json" {
		views := make([]productView, len(rows))
		for i, row := range rows {
			views[i] = productView{ID: row.Product.ID, Name: row.Product.Name}
			if row.Favorited() {
				id := row.Favorite.ID
				views[i].FavoriteID = &id
			}
		}
		return r.writeJSON(views, true)
	}

	data, err := formatter.Export(rows, format)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := formatter.WriteExport(outputPath, data); err != nil {
			return err
		}
		r.logger.Info("products exported", "format", format, "path", outputPath, "count", len(rows))
		return r.writePlain("✓ Exported %d products to %s\n", len(rows), outputPath)
	}

	_, err = r.output.Write(data)
	return err
}

// FavoritesList prints the logged-in user's favorites with product names.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.resolved(ctx)
	if err != nil {
		return err
	}
	c.Run(ctx, c.LoadProducts())

	state := c.State()
	if cmd.Bool("json") {
		return r.writeJSON(state.Favorites, true)
	}

	if len(state.Favorites) == 0 {
		return r.writePlain("No favorites yet for %s\n", state.Identity.Username)
	}

	if err := r.writePlain("Favorites of %s:\n", state.Identity.Username); err != nil {
		return err
	}
	for _, f := range state.Favorites {
		if err := r.writePlain("  %s. %s (product %s)\n", f.ID, productName(state, f.ProductID), f.ProductID); err != nil {
			return err
		}
	}
	return nil
}

// FavoritesAdd marks the product given as argument as a favorite.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	productID := models.ParseID(cmd.StringArg("product-id"))
	if productID.IsZero() {
		return fmt.Errorf("%w: product-id", shared.ErrMissingArgument)
	}

	c, err := r.resolved(ctx)
	if err != nil {
		return err
	}
	c.Run(ctx, c.LoadProducts())

	if err := r.mutate(ctx, c, c.AddFavorite(productID)); err != nil {
		return err
	}

	state := c.State()
	f, _ := state.FavoriteFor(productID)
	return r.writePlain("✓ Added %s to favorites (favorite %s)\n", productName(state, productID), f.ID)
}

// FavoritesRemove deletes the favorite given as argument.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	favoriteID := models.ParseID(cmd.StringArg("favorite-id"))
	if favoriteID.IsZero() {
		return fmt.Errorf("%w: favorite-id", shared.ErrMissingArgument)
	}

	c, err := r.resolved(ctx)
	if err != nil {
		return err
	}

	if err := r.mutate(ctx, c, c.RemoveFavorite(favoriteID)); err != nil {
		return err
	}
	return r.writePlain("✓ Removed favorite %s\n", favoriteID)
}

// mutate runs a favorite mutation and turns a refusal or failure into an error.
func (r *Runner) mutate(ctx context.Context, c *tasks.Controller, task tasks.Task) error {
	if task != nil {
		c.Run(ctx, task)
	}
	if msg := c.State().Message; msg != "" {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, msg)
	}
	return nil
}

func productName(state tasks.State, id models.ID) string {
	for _, p := range state.Products {
		if p.ID == id {
			return p.Name
		}
	}
	return "product " + id.String()
}
