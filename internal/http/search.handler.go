package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/daolmedo/chartistry/internal/appcontext"
)

// SearchDatasets searches a user's indexed datasets and columns. Query
// prefixes narrow the resource type: "ds:" for datasets, "col:" for columns.
func SearchDatasets(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		q := c.Query("q")

		if userID == "" || q == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId or search query"})
			return
		}

		var typeFilter string
		var actualQuery string

		switch {
		case strings.HasPrefix(q, "ds:"):
			typeFilter = "type = dataset"
			actualQuery = strings.TrimPrefix(q, "ds:")
		case strings.HasPrefix(q, "col:"):
			typeFilter = "type = column"
			actualQuery = strings.TrimPrefix(q, "col:")
		default:
			typeFilter = "type IN [dataset, column]"
			actualQuery = q
		}

		filter := fmt.Sprintf("user_id = %q AND %s", userID, typeFilter)

		searchParams := &meilisearch.SearchRequest{
			Query:  actualQuery,
			Filter: filter,
		}

		searchResult, err := ctx.MeilisearchClient.Index("datasets").Search(actualQuery, searchParams)
		if err != nil {
			ctx.Logger.Error("Failed to perform search", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to perform search"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"results": searchResult.Hits})
	}
}
