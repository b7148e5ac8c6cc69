package planner

import (
	"regexp"
	"strings"
)

// blacklist holds query values too generic to be useful search terms —
// common UI words, well-known frameworks, and common meta content —
// mirroring the original tool's QUERY_BLACKLIST.
var blacklist = map[string]struct{}{
	"login": {}, "logout": {}, "register": {}, "signup": {}, "sign up": {}, "sign in": {},
	"password": {}, "email": {}, "username": {}, "submit": {}, "search": {}, "home": {},
	"index": {}, "welcome": {}, "dashboard": {}, "admin": {}, "settings": {}, "profile": {},
	"contact": {}, "about": {}, "help": {}, "faq": {}, "terms": {}, "privacy": {},

	"bootstrap": {}, "jquery": {}, "font-awesome": {}, "fontawesome": {}, "react": {},
	"angular": {}, "vue": {}, "tailwind": {}, "materialize": {}, "foundation": {},
	"twitter": {}, "facebook": {}, "google": {}, "github": {}, "linkedin": {},

	"normalize": {}, "reset": {}, "polyfill": {}, "vendor": {}, "bundle": {}, "chunk": {},
	"main.js": {}, "app.js": {}, "style.css": {}, "main.css": {},

	"utf-8": {}, "viewport": {}, "robots": {}, "description": {}, "keywords": {},

	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {}, "this": {},
}

// genericPatterns is a regex list matching generic HTML structure,
// common frontend frameworks/libraries, CMS paths, and generic
// attributes — none of it unique to any particular application.
var genericPatterns = compileAll([]string{
	`^<html\s+lang=`,
	`^<meta\s+http-equiv=`,
	`^<meta\s+charset=`,
	`^<meta\s+name="viewport"`,
	`^<meta\s+name="robots"`,
	`^<!doctype\s+html>`,
	`^<div\s+class=`,
	`^<span\s+class=`,

	`^x-ua-compatible`,
	`^content-type`,
	`^charset=utf-8`,

	`^datalayer\s*=`,
	`^window\.`,
	`^document\.`,

	`^jquery$`, `^bootstrap$`, `^font-?awesome$`, `^react$`, `^angular$`, `^vue$`,
	`^tailwind`, `^materialize`, `^foundation$`, `^bulma$`, `^semantic-ui`,
	`^normalize`, `^reset\.css`,
	`^ng-app$`, `^ng-controller$`, `^ng-model$`, `^ng-view$`, `^ng-repeat$`,
	`^v-app$`, `^v-model$`, `^v-if$`, `^v-for$`,
	`^data-reactroot$`, `^data-reactid$`,
	`^__next$`, `^__nuxt$`, `^app-root$`, `^mat-`, `^md-`, `^mdc-`,
	`^btn$`, `^fa-`, `^glyphicon`, `^icon-`,
	`^polyfill`, `^webpack`, `^main\.\w+\.js$`, `^vendor\.\w+\.js$`, `^runtime\.\w+\.js$`, `^chunk\.\w+\.js$`,

	`^/wp-content/`, `^/wp-includes/`, `^/xmlrpc\.php`, `^/node_modules/`, `^/vendor/`,

	`^/admin$`, `^/api$`, `^/login$`, `^/home$`, `^/index$`,

	`^class="`, `^id="`, `^style="`, `^no-js`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// isBlacklisted reports whether value is too generic to be a useful
// query term: too short, a direct blacklist match, or matching one of
// the generic structural/framework patterns.
func isBlacklisted(value string) bool {
	if len(value) < 3 {
		return true
	}
	lower := normalize(value)
	if _, ok := blacklist[lower]; ok {
		return true
	}
	for _, re := range genericPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
