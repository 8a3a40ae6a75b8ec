// Package views turns backend payloads into the shapes the dashboard draws:
// grouped tables, pie slices, date-filtered lists and formatted amounts.
// Every function here is pure; "today" and exchange rates are passed in.
package views
