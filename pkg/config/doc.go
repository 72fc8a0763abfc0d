/*
Package config defines the on-disk configuration schema, validated on
load with struct tags (github.com/go-playground/validator/v10, the
same tag-driven validation style the pack uses for structured
payloads) and persisted as YAML (gopkg.in/yaml.v3).
*/
package config
