package handler

import (
	"net/http"
	"strconv"

	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// paramID parses a positive numeric path parameter, writing a 400 when it is not one.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// listOptions reads team, search, page (zero-based), page_size and cursor.
func listOptions(c *gin.Context) service.ListOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	if page < 0 {
		page = 0
	}
	if size < 0 {
		size = 0
	}
	return service.ListOptions{
		Team:     c.Query("team"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: size,
		Cursor:   c.Query("cursor"),
	}
}
