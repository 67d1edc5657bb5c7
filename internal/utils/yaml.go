package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// YAMLNameOfField returns the YAML key that is used for the given struct
// field.  It does this by actually serializing the field and parsing the
// output string.  If the field has no key (e.g. if the `yaml:"-"` tag is set,
// this will return an empty string.
func YAMLNameOfField(field reflect.StructField) string {
	if strings.HasPrefix(field.Tag.Get("yaml"), ",inline") {
		return ""
	}
	tmp := reflect.New(reflect.StructOf([]reflect.StructField{field})).Elem()
	asYaml, _ := yaml.Marshal(tmp.Interface())
	parts := strings.SplitN(string(asYaml), ":", 2)
	if parts[0] == string(asYaml) {
		return ""
	}
	return parts[0]
}

// YAMLNameOfFieldInStruct returns the YAML key that is used for the given
// struct field, looking up fieldName in the given st struct.  Embedded
// structs are searched too.  If st is not a struct, this will panic.
func YAMLNameOfFieldInStruct(fieldName string, st interface{}) string {
	stType := reflect.Indirect(reflect.ValueOf(st)).Type()
	field, ok := stType.FieldByName(fieldName)
	if !ok {
		return ""
	}
	return YAMLNameOfField(field)
}

var yamlLineRE = regexp.MustCompile(`line (\d+): `)

// ParseLineNumberFromYAMLError takes an error message nested in yaml.TypeError
// and returns a line number if indicated in the error message.  This is pretty
// hacky but is the only way to actually get at the line number in the standard
// yaml package.
func ParseLineNumberFromYAMLError(e string) int {
	match := yamlLineRE.FindStringSubmatch(e)
	if len(match) > 0 {
		asInt, err := strconv.Atoi(match[1])
		if err != nil {
			return 0
		}
		return asInt
	}
	return 0
}

// YAMLErrorWithContext returns an error that includes the offending line of
// the source document (plus one line on either side) if the yaml error
// message mentions a line number.
func YAMLErrorWithContext(content []byte, err error) error {
	line := ParseLineNumberFromYAMLError(err.Error())
	if line == 0 {
		return err
	}

	lines := strings.Split(string(content), "\n")
	var ctx []string
	for i := line - 2; i <= line; i++ {
		if i < 0 || i >= len(lines) {
			continue
		}
		marker := "  "
		if i == line-1 {
			marker = "> "
		}
		ctx = append(ctx, fmt.Sprintf("%s%d: %s", marker, i+1, lines[i]))
	}
	return fmt.Errorf("%v\n\n%s", err, strings.Join(ctx, "\n"))
}
