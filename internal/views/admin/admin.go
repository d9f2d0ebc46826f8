// Package admin renders the administrative list pages.
package admin

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	adminq "foodgram/internal/admin"
	"foodgram/models"
)

// Section identifies one of the admin list pages.
type Section struct {
	Path  string
	Label string
}

// Sections lists the admin pages in navigation order.
var Sections = []Section{
	{Path: "/admin/recipes", Label: "Recipes"},
	{Path: "/admin/ingredients", Label: "Ingredients"},
	{Path: "/admin/tags", Label: "Tags"},
	{Path: "/admin/users", Label: "Users"},
	{Path: "/admin/subscriptions", Label: "Subscriptions"},
	{Path: "/admin/favorites", Label: "Favorites"},
}

type cell struct {
	text  string
	image string
	color string
}

type table struct {
	title   string
	path    string
	filters adminq.Filters
	headers []string
	rows    [][]cell
}

func text(value string) cell { return cell{text: value} }

func number[T ~int | ~int64 | ~uint](value T) cell {
	return cell{text: strconv.FormatInt(int64(value), 10)}
}

// RecipeList renders recipes with author, image and favorite counts.
func RecipeList(filters adminq.Filters, rows []adminq.RecipeRow) templ.Component {
	t := table{
		title:   "Recipes",
		path:    "/admin/recipes",
		filters: filters,
		headers: []string{"ID", "Name", "Author", "Image", "Cooking time", "In favorites"},
	}
	for _, row := range rows {
		t.rows = append(t.rows, []cell{
			number(row.ID),
			text(row.Name),
			text(row.AuthorUsername),
			{image: row.Image},
			number(row.CookingTime),
			number(row.FavoritesCount),
		})
	}
	return t.component()
}

func IngredientList(filters adminq.Filters, ingredients []models.Ingredient) templ.Component {
	t := table{
		title:   "Ingredients",
		path:    "/admin/ingredients",
		filters: filters,
		headers: []string{"ID", "Name", "Measurement unit"},
	}
	for _, ingredient := range ingredients {
		t.rows = append(t.rows, []cell{number(ingredient.ID), text(ingredient.Name), text(string(ingredient.MeasurementUnit))})
	}
	return t.component()
}

func TagList(filters adminq.Filters, tags []models.Tag) templ.Component {
	t := table{
		title:   "Tags",
		path:    "/admin/tags",
		filters: filters,
		headers: []string{"ID", "Name", "Slug", "Color"},
	}
	for _, tag := range tags {
		t.rows = append(t.rows, []cell{number(tag.ID), text(tag.Name), text(tag.Slug), {text: tag.Color, color: tag.Color}})
	}
	return t.component()
}

func UserList(filters adminq.Filters, users []models.User) templ.Component {
	t := table{
		title:   "Users",
		path:    "/admin/users",
		filters: filters,
		headers: []string{"ID", "Username", "Email", "First name", "Last name", "Admin"},
	}
	for _, user := range users {
		admin := "no"
		if user.IsAdmin {
			admin = "yes"
		}
		t.rows = append(t.rows, []cell{number(user.ID), text(user.Username), text(user.Email), text(user.FirstName), text(user.LastName), text(admin)})
	}
	return t.component()
}

func SubscriptionList(filters adminq.Filters, rows []adminq.SubscriptionRow) templ.Component {
	t := table{
		title:   "Subscriptions",
		path:    "/admin/subscriptions",
		filters: filters,
		headers: []string{"ID", "Subscriber", "Author"},
	}
	for _, row := range rows {
		t.rows = append(t.rows, []cell{
			number(row.ID),
			text(fmt.Sprintf("%s (%s)", row.UserUsername, row.UserEmail)),
			text(fmt.Sprintf("%s (%s)", row.AuthorUsername, row.AuthorEmail)),
		})
	}
	return t.component()
}

func FavoriteList(filters adminq.Filters, rows []adminq.FavoriteRow) templ.Component {
	t := table{
		title:   "Favorites",
		path:    "/admin/favorites",
		filters: filters,
		headers: []string{"ID", "User", "Recipe"},
	}
	for _, row := range rows {
		t.rows = append(t.rows, []cell{number(row.ID), text(row.UserUsername), text(row.RecipeName)})
	}
	return t.component()
}

func (t table) component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
		b.WriteString(templ.EscapeString("Foodgram admin | " + t.title))
		b.WriteString("</title></head><body><nav>")
		for _, section := range Sections {
			if section.Path == t.path {
				fmt.Fprintf(&b, "<strong>%s</strong> ", templ.EscapeString(section.Label))
				continue
			}
			fmt.Fprintf(&b, "<a href=\"%s\">%s</a> ", templ.EscapeString(section.Path), templ.EscapeString(section.Label))
		}
		b.WriteString("</nav><h1>")
		b.WriteString(templ.EscapeString(t.title))
		b.WriteString("</h1>")
		fmt.Fprintf(&b, "<form method=\"get\" action=\"%s\"><input type=\"search\" name=\"q\" value=\"%s\"><button type=\"submit\">Search</button></form>",
			templ.EscapeString(t.path), templ.EscapeString(t.filters.Query))
		fmt.Fprintf(&b, "<p>%d result(s)</p><table><thead><tr>", len(t.rows))
		for _, header := range t.headers {
			fmt.Fprintf(&b, "<th>%s</th>", templ.EscapeString(header))
		}
		b.WriteString("</tr></thead><tbody>")
		for _, row := range t.rows {
			b.WriteString("<tr>")
			for _, c := range row {
				b.WriteString("<td>")
				c.render(&b)
				b.WriteString("</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table></body></html>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func (c cell) render(b *strings.Builder) {
	switch {
	case c.image != "":
		fmt.Fprintf(b, "<img src=\"%s\" alt=\"\" width=\"80\">", templ.EscapeString(c.image))
	case c.color != "":
		fmt.Fprintf(b, "<span style=\"color: %s\">%s</span>", templ.EscapeString(c.color), templ.EscapeString(c.text))
	default:
		b.WriteString(templ.EscapeString(c.text))
	}
}
