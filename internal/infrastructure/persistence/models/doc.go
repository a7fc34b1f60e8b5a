// Package models contains the GORM persistence models. They mirror the
// database schema one to one; conversion to and from domain types happens
// in the repositories and application services that use them.
package models
