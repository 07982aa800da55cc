package bokun

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// PageSize is fixed by the upstream search endpoints
const PageSize = 100

// Pager walks a paginated POST endpoint one page per Next call.
//
// Paging continues while the previous page was full. When the total result
// count is an exact multiple of PageSize the final request returns zero
// items; Bokun gives no way to know the total up front, so that request is
// made and yielded like any other page.
type Pager struct {
	client    *Client
	ctx       context.Context
	path      string
	query     url.Values
	pageField string
	base      map[string]interface{}

	page int
	done bool

	body map[string]interface{}
	resp *Response
	err  error
}

// PaginatedPost returns a pager over path. The pager cannot be rewound; call
// PaginatedPost again to start over from page 1.
func (c *Client) PaginatedPost(ctx context.Context, path string, body map[string]interface{}, query url.Values, pageField string) *Pager {
	base := make(map[string]interface{}, len(body)+2)
	for k, v := range body {
		base[k] = v
	}
	base["pageSize"] = PageSize

	if pageField == "" {
		pageField = "items"
	}

	return &Pager{
		client:    c,
		ctx:       ctx,
		path:      path,
		query:     query,
		pageField: pageField,
		base:      base,
		page:      1,
	}
}

// Next requests the next page. It returns false when paging is finished or
// an error occurred; check Err afterwards.
func (p *Pager) Next() bool {
	if p.done || p.err != nil {
		return false
	}

	body := make(map[string]interface{}, len(p.base)+1)
	for k, v := range p.base {
		body[k] = v
	}
	body["page"] = p.page

	resp, err := p.client.Post(p.ctx, p.path, body, p.query)
	if err != nil {
		p.err = err
		p.done = true
		return false
	}

	var doc map[string]json.RawMessage
	if err := resp.Decode(&doc); err != nil {
		p.err = err
		p.done = true
		return false
	}

	var items []json.RawMessage
	if raw, ok := doc[p.pageField]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			p.err = fmt.Errorf("page field %q is not a list: %w", p.pageField, err)
			p.done = true
			return false
		}
	}

	if len(items) < PageSize {
		p.done = true
	} else {
		p.page++
	}

	p.body = body
	p.resp = resp
	return true
}

// Body returns the effective request body of the current page
func (p *Pager) Body() map[string]interface{} {
	return p.body
}

// Response returns the raw response of the current page
func (p *Pager) Response() *Response {
	return p.resp
}

// Err returns the error that stopped paging, if any
func (p *Pager) Err() error {
	return p.err
}
