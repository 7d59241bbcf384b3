// Package pages binds the loaded profile document to the site's About,
// Experience and Projects pages. Every field is copied only when present;
// sections without data are hidden rather than rendered empty. When the
// profile cannot be loaded the page is replaced by a generic fallback.
package pages
