package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestDashboardIndex(t *testing.T) {
	h := NewDashboardHandler("pi <home>", RefreshOptions{Default: 5, Min: 2}, 8)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?refresh=1", nil)
	rec := httptest.NewRecorder()
	if err := h.Index(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Index() 失败: %v", err)
	}
	body := rec.Body.String()

	if strings.Contains(body, "[[") {
		t.Error("模板占位符未全部替换")
	}
	if !strings.Contains(body, "pi &lt;home&gt;") {
		t.Error("标题应转义")
	}
	if !strings.Contains(body, "|| 2);") {
		t.Error("刷新间隔应提升到最小值 2 秒")
	}
	if !strings.Contains(body, `<option value="2" selected>2s</option>`) {
		t.Error("当前刷新间隔应被选中")
	}
	if strings.Contains(body, `<option value="1"`) {
		t.Error("不应提供小于最小值的选项")
	}
	if !strings.Contains(body, "/metrics?view=summary&top=8") {
		t.Error("页面应轮询 /metrics")
	}
}
