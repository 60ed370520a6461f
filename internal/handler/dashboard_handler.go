package handler

import (
	_ "embed"
	"fmt"
	"html"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/valyala/fasttemplate"
)

//go:embed web/dashboard.html
var dashboardHTML string

// 页面可选的刷新间隔(秒)
var refreshChoices = []int{1, 2, 5, 10, 30, 60}

// DashboardHandler 状态页处理器
type DashboardHandler struct {
	title   string
	refresh RefreshOptions
	topN    int
	tpl     *fasttemplate.Template
}

// NewDashboardHandler 创建状态页处理器
func NewDashboardHandler(title string, refresh RefreshOptions, topN int) *DashboardHandler {
	return &DashboardHandler{
		title:   title,
		refresh: refresh,
		topN:    topN,
		tpl:     fasttemplate.New(dashboardHTML, "[[", "]]"),
	}
}

// Index 渲染状态页，页面通过轮询 /metrics 刷新
// GET /?refresh=N
func (h *DashboardHandler) Index(c echo.Context) error {
	seconds := int(h.refresh.Clamp(c.QueryParam("refresh")).Seconds())

	page := h.tpl.ExecuteString(map[string]any{
		"title":       html.EscapeString(h.title),
		"metricsPath": "/metrics",
		"top":         strconv.Itoa(h.topN),
		"refresh":     strconv.Itoa(seconds),
		"options":     h.options(seconds),
	})
	return c.HTML(http.StatusOK, page)
}

func (h *DashboardHandler) options(selected int) string {
	choices := append([]int{selected}, refreshChoices...)
	choices = slices.DeleteFunc(choices, func(v int) bool { return v < h.refresh.Min })
	slices.Sort(choices)
	choices = slices.Compact(choices)

	var sb strings.Builder
	for _, v := range choices {
		attr := ""
		if v == selected {
			attr = " selected"
		}
		fmt.Fprintf(&sb, `<option value="%d"%s>%ds</option>`, v, attr, v)
	}
	return sb.String()
}
