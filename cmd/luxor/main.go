package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/luxor-photos/luxor/internal/favorites"
	"github.com/luxor-photos/luxor/internal/favsync"
	"github.com/luxor-photos/luxor/internal/identity"
	"github.com/luxor-photos/luxor/internal/unsplash"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serverURL    string
	identityFile string
	searchPage   int
	searchCount  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "luxor",
		Short:         "Search photos and manage favorites from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Luxor API base URL")
	rootCmd.PersistentFlags().StringVar(&identityFile, "identity-file", "", "Path of the identifier file (defaults under the user config dir)")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search photos through the Luxor proxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args[0])
		},
	}
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page, 1-indexed")
	searchCmd.Flags().IntVar(&searchCount, "per-page", 10, "Results per page (1-30)")

	favoritesCmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage saved favorites",
	}
	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved favorites, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesList(cmd.Context())
		},
	})
	favoritesCmd.AddCommand(&cobra.Command{
		Use:   "toggle <photo-id>",
		Short: "Save the photo, or remove it when already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesToggle(cmd.Context(), args[0])
		},
	})

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the anonymous identifier scoping this profile's favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := newIdentityProvider()
			if err != nil {
				return err
			}
			value, err := provider.GetOrCreateIdentifier()
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}

	rootCmd.AddCommand(searchCmd, favoritesCmd, whoamiCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newIdentityProvider() (*identity.Provider, error) {
	path := identityFile
	if path == "" {
		defaultPath, err := identity.DefaultStorePath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	return identity.NewProvider(identity.ProviderConfig{
		Store:  identity.NewFileStore(path),
		Logger: zap.NewNop(),
	})
}

func newFavoritesState() (*favsync.State, error) {
	provider, err := newIdentityProvider()
	if err != nil {
		return nil, err
	}
	store, err := favsync.NewHTTPStore(favsync.HTTPStoreConfig{
		BaseURL:  serverURL,
		Identity: provider,
	})
	if err != nil {
		return nil, err
	}
	return favsync.NewState(favsync.StateConfig{Store: store})
}

func runFavoritesList(ctx context.Context) error {
	state, err := newFavoritesState()
	if err != nil {
		return err
	}

	state.Reload(ctx)
	if message := state.ErrorMessage(); message != "" {
		return errors.New(message)
	}

	records := state.Favorites()
	if len(records) == 0 {
		fmt.Println("no favorites saved yet")
		return nil
	}
	for _, record := range records {
		fmt.Println(formatFavorite(record))
	}
	return nil
}

func runFavoritesToggle(ctx context.Context, photoID string) error {
	state, err := newFavoritesState()
	if err != nil {
		return err
	}

	state.Reload(ctx)
	if message := state.ErrorMessage(); message != "" {
		return errors.New(message)
	}

	wasFavorite := state.IsFavorite(photoID)
	state.ToggleFavorite(ctx, favorites.PhotoRecord{ID: photoID})
	if message := state.ErrorMessage(); message != "" {
		return errors.New(message)
	}

	if wasFavorite {
		fmt.Printf("removed %s from favorites\n", photoID)
	} else {
		fmt.Printf("added %s to favorites\n", photoID)
	}
	return nil
}

func runSearch(ctx context.Context, query string) error {
	provider, err := newIdentityProvider()
	if err != nil {
		return err
	}
	ownerID, err := provider.GetOrCreateIdentifier()
	if err != nil {
		return err
	}

	values := url.Values{}
	values.Set("query", query)
	values.Set("page", strconv.Itoa(searchPage))
	values.Set("per_page", strconv.Itoa(searchCount))

	endpoint := strings.TrimRight(serverURL, "/") + "/unsplash/search?" + values.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	request.Header.Set("X-User-ID", ownerID)

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	var reply struct {
		Success bool                  `json:"success"`
		Data    unsplash.SearchResult `json:"data"`
		Message string                `json:"message"`
	}
	if err := json.NewDecoder(response.Body).Decode(&reply); err != nil {
		return fmt.Errorf("decoding search response: %w", err)
	}
	if !reply.Success {
		if reply.Message != "" {
			return errors.New(reply.Message)
		}
		return errors.New("search failed")
	}

	fmt.Printf("%d results (%d pages)\n", reply.Data.Total, reply.Data.TotalPages)
	for _, photo := range reply.Data.Results {
		fmt.Println(formatPhoto(photo))
	}
	return nil
}

func formatFavorite(record favorites.FavoriteRecord) string {
	line := record.PhotoID
	if name := record.Photo.Photographer.Name; name != "" {
		line += "  by " + name
	}
	if record.Photo.URLs.Small != nil {
		line += "  " + *record.Photo.URLs.Small
	}
	return line
}

func formatPhoto(photo favorites.PhotoRecord) string {
	line := photo.ID
	if photo.AltDescription != nil && *photo.AltDescription != "" {
		line += "  " + *photo.AltDescription
	} else if photo.Description != nil && *photo.Description != "" {
		line += "  " + *photo.Description
	}
	if name := photo.Photographer.Name; name != "" {
		line += "  (by " + name + ")"
	}
	return line
}
