// Package points holds the league scoring policy: a fixed finishing-position
// table for races and the one-point bonuses for fastest lap and pole position.
package points
