package web

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"cointrack/dataprovider"
	"cointrack/dataprovider/coingecko"
)

const defaultChartDays = 365

// templateDir resolves the template directory from config, defaulting to the
// repository layout.
func templateDir(controller AppController) string {
	if dir := controller.GetConfig().Web.TemplateDir; dir != "" {
		return dir
	}
	return filepath.Join("web", "templates")
}

func renderTemplate(w http.ResponseWriter, controller AppController, tmplName string, pageData interface{}) {
	lp := filepath.Join(templateDir(controller), "layout.html")
	fp := filepath.Join(templateDir(controller), tmplName)

	funcMap := template.FuncMap{
		"join": strings.Join,
		"money": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return fmt.Sprintf("$%.2f", *v)
		},
		"price": func(v float64) string {
			return fmt.Sprintf("$%.2f", v)
		},
		"pct": func(v *float64) string {
			if v == nil {
				return "—"
			}
			return fmt.Sprintf("%+.2f%%", *v)
		},
		"rank": func(v *int) string {
			if v == nil {
				return "—"
			}
			return fmt.Sprintf("#%d", *v)
		},
	}

	layoutData := struct {
		Template string
		Version  string
		PageData interface{}
	}{
		Template: tmplName,
		Version:  controller.GetConfig().Version,
		PageData: pageData,
	}

	tmpl, err := template.New(filepath.Base(lp)).Funcs(funcMap).ParseFiles(lp, fp)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error parsing template: %v", err), http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, layoutData); err != nil {
		controller.Logger().LogError("Web: error executing template %s: %v", tmplName, err)
	}
}

// renderError shows the error page with a retry link. Transport and provider
// failures land here; nothing is retried automatically.
func renderError(w http.ResponseWriter, controller AppController, status int, message, backURL string) {
	w.WriteHeader(status)
	renderTemplate(w, controller, "error.html", ErrorPageData{
		Status:  status,
		Message: message,
		BackURL: backURL,
	})
}

// marketHandler serves the paged market list with favorites marked.
func marketHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}

		coins, err := controller.GetMarketPage(r.Context(), page)
		if err != nil {
			controller.Logger().LogError("Web: market page %d fetch failed: %v", page, err)
			renderError(w, controller, http.StatusBadGateway, "Could not load market data.", r.URL.String())
			return
		}

		renderTemplate(w, controller, "market.html", MarketPageData{
			Coins:     coins,
			Favorites: controller.Favorites().Get(),
			Page:      page,
			PrevPage:  page - 1,
			NextPage:  page + 1,
		})
	}
}

// searchHandler serves provider search results; matching is done server-side
// by the provider, so the query is passed through untouched.
func searchHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		resp, err := controller.SearchCoins(r.Context(), query)
		if err != nil {
			controller.Logger().LogError("Web: search %q failed: %v", query, err)
			renderError(w, controller, http.StatusBadGateway, "Search failed.", r.URL.String())
			return
		}

		renderTemplate(w, controller, "search.html", SearchPageData{
			Query:     query,
			Results:   resp.Coins,
			Favorites: controller.Favorites().Get(),
		})
	}
}

// coinHandler serves the per-coin detail page with the historical chart.
func coinHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/coin/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}

		days, _ := strconv.Atoi(r.URL.Query().Get("days"))
		if days <= 0 {
			days = defaultChartDays
		}

		detail, err := controller.GetCoinDetail(r.Context(), id)
		if err != nil {
			if coingecko.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			controller.Logger().LogError("Web: detail fetch for %s failed: %v", id, err)
			renderError(w, controller, http.StatusBadGateway, "Could not load coin detail.", r.URL.String())
			return
		}

		// A missing chart degrades to an empty graph rather than failing the
		// whole page.
		var chart dataprovider.ChartData
		chart, err = controller.GetCoinChart(r.Context(), id, days)
		if err != nil {
			controller.Logger().LogWarn("Web: chart fetch for %s (%dd) failed: %v", id, days, err)
		}

		renderTemplate(w, controller, "coin.html", CoinPageData{
			Detail:     detail,
			Days:       days,
			IsFavorite: controller.Favorites().Has(id),
			Chart:      buildChartView(chart.Prices, 720, 240),
		})
	}
}

// toggleFavoriteHandler flips one id in the favorites set and redirects back.
func toggleFavoriteHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		id := r.FormValue("id")
		if id == "" {
			http.Error(w, "missing coin id", http.StatusBadRequest)
			return
		}

		favorited := controller.Favorites().Toggle(id)
		controller.Logger().LogInfo("Web: favorite toggled for %s (now %t)", id, favorited)

		back := r.FormValue("back")
		if back == "" || !strings.HasPrefix(back, "/") {
			back = "/"
		}
		http.Redirect(w, r, back, http.StatusFound)
	}
}

// buildChartView projects a price series into SVG polyline coordinates.
func buildChartView(prices [][2]float64, width, height int) ChartView {
	view := ChartView{Width: width, Height: height, Empty: true}
	if len(prices) < 2 {
		return view
	}

	minT, maxT := prices[0][0], prices[len(prices)-1][0]
	minP, maxP := prices[0][1], prices[0][1]
	for _, p := range prices {
		if p[1] < minP {
			minP = p[1]
		}
		if p[1] > maxP {
			maxP = p[1]
		}
	}

	spanT := maxT - minT
	spanP := maxP - minP
	if spanT <= 0 {
		return view
	}
	if spanP <= 0 {
		spanP = 1 // flat series renders as a horizontal line
	}

	var b strings.Builder
	for i, p := range prices {
		x := (p[0] - minT) / spanT * float64(width)
		y := float64(height) - (p[1]-minP)/spanP*float64(height)
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y)
	}

	view.Points = b.String()
	view.MinPrice = minP
	view.MaxPrice = maxP
	view.Empty = false
	return view
}
