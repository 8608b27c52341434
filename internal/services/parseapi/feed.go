package parseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"feedscribe/internal/catalog"
)

const routeUserPosts = "/api/douyin/web/fetch_user_post_videos"

type postsPage struct {
	AwemeList []awemeItem `json:"aweme_list"`
	HasMore   flexBool    `json:"has_more"`
	MaxCursor json.Number `json:"max_cursor"`
}

type awemeItem struct {
	AwemeID    string      `json:"aweme_id"`
	Desc       string      `json:"desc"`
	ItemTitle  string      `json:"item_title"`
	CreateTime json.Number `json:"create_time"`
}

// flexBool accepts true/false as well as 0/1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(bytes.Trim(data, `"`))) {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// FetchPage lists one page of a creator's posts.
func (c *Client) FetchPage(ctx context.Context, userID string, cursor int64, pageSize int) (catalog.Page, error) {
	query := url.Values{}
	query.Set("sec_user_id", userID)
	query.Set("max_cursor", strconv.FormatInt(cursor, 10))
	query.Set("count", strconv.Itoa(pageSize))

	var page postsPage
	if err := c.getJSON(ctx, routeUserPosts, query, &page); err != nil {
		return catalog.Page{}, err
	}

	out := catalog.Page{
		Items:   make([]catalog.RawItem, 0, len(page.AwemeList)),
		HasMore: bool(page.HasMore),
	}
	if next, err := page.MaxCursor.Int64(); err == nil {
		out.NextCursor = next
	}
	for _, item := range page.AwemeList {
		created, _ := item.CreateTime.Int64()
		out.Items = append(out.Items, catalog.RawItem{
			ID:          item.AwemeID,
			Description: item.Desc,
			Title:       item.ItemTitle,
			CreateTime:  created,
		})
	}
	return out, nil
}
