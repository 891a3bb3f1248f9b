package executor

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	language "github.com/hanpama/booksgraph/internal/language"
	schema "github.com/hanpama/booksgraph/internal/schema"
)

type Path []PathElement

type PathElement any

// executionState holds the state during query execution
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	asyncTaskGroup []asyncTask
	errors         []GraphQLError
	response       map[string]any
	// the whole response is null (non-null root field failed)
	dataNull bool
	// prefixes of paths that have been nullified (tombstoned)
	nullifiedPrefix map[string]struct{}
	// response names of each object in selection order, keyed by object path
	fieldOrder map[string][]string
}

// asyncTask represents a pending async field resolution
type asyncTask struct {
	Task         AsyncResolveTask
	ResponsePath Path
	// Boundary is where null lands when the field completes to null:
	// ResponsePath itself for nullable fields, otherwise the nearest nullable
	// ancestor.
	Boundary  Path
	FieldType *schema.TypeRef
	Fields    []*language.Field
}

// asyncPending is the placeholder written at an async field's position until
// its batch completes.
type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// Schema returns the schema operations are executed against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation, err := GetOperation(document, operationName)
	if err != nil {
		return ErrorResult(GraphQLError{Message: err.Error()})
	}

	coercedVariableValues, errs := coerceVariableValues(e.schema, operation, variableValues)
	if len(errs) > 0 {
		return ErrorResult(errs...)
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		return ErrorResult(GraphQLError{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)})
	}

	if rootType == nil {
		return ErrorResult(GraphQLError{Message: fmt.Sprintf("schema does not support %s operations", operation.Operation)})
	}

	state := &executionState{
		runtime:         e.runtime,
		schema:          e.schema,
		document:        document,
		variableValues:  coercedVariableValues,
		context:         ctx,
		errors:          []GraphQLError{},
		nullifiedPrefix: make(map[string]struct{}),
		fieldOrder:      make(map[string][]string),
	}

	if operation.Operation == language.Mutation {
		executeMutationFields(state, rootType, operation.SelectionSet, initialValue)
	} else {
		// sync fields run in document order, async fields are queued
		rootResult := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{}, Path{})
		if rootResult == nil {
			state.dataNull = true
		}
		state.response = rootResult
		drainAsyncTasks(state)
	}

	if state.dataNull {
		return &ExecutionResult{Data: nil, Errors: state.errors}
	}
	return &ExecutionResult{Data: state.response, Errors: state.errors, fieldOrder: state.fieldOrder}
}

// executeMutationFields runs the root fields of a mutation one at a time. A
// field and all of its batched subfields complete before the next one starts.
func executeMutationFields(state *executionState, rootType *schema.Type, selectionSet language.SelectionSet, rootValue any) {
	groupedFields := collectFields(state, rootType, selectionSet)
	state.response = make(map[string]any, len(groupedFields.orderedFields()))
	state.recordFieldOrder(Path{}, groupedFields)

	for _, collectedField := range groupedFields.orderedFields() {
		if !executeField(state, rootType, collectedField, rootValue, Path{}, Path{}, state.response) {
			state.dataNull = true
			return
		}
		drainAsyncTasks(state)
		if state.dataNull {
			return
		}
	}
}

// drainAsyncTasks runs the depth-wise batch loop until no task is queued.
func drainAsyncTasks(state *executionState) {
	for len(state.asyncTaskGroup) > 0 && !state.dataNull {
		if err := state.context.Err(); err != nil {
			abortAsyncTasks(state, err)
			return
		}
		filtered, results := flushAsyncTasks(state)
		for i, r := range results {
			completeAsyncField(state, filtered[i], r)
		}
	}
}

// executeSelectionSet executes a selection set without flushing. It returns
// nil when a Non-Null field of the object completed to null. boundary is the
// nearest position at or above path that may hold null; an empty boundary
// stands for the whole response data.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path, boundary Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any, len(groupedFields.orderedFields()))
	state.recordFieldOrder(path, groupedFields)

	for _, collectedField := range groupedFields.orderedFields() {
		if !executeField(state, objectType, collectedField, objectValue, path, boundary, resultMap) {
			return nil
		}
	}
	return resultMap
}

// executeField stores the result of one collected field in resultMap. It
// returns false when a Non-Null field completed to null and the parent must
// become null.
func executeField(state *executionState, objectType *schema.Type, collectedField collectedField, objectValue any, path, boundary Path, resultMap map[string]any) bool {
	responseName := collectedField.ResponseName
	fields := collectedField.Fields
	fieldPath := appendPath(path, responseName)

	if fields[0].Name == "__typename" {
		resultMap[responseName] = objectType.Name
		return true
	}

	fieldDef := objectType.Field(fields[0].Name)
	if fieldDef == nil {
		state.errors = append(state.errors, GraphQLError{
			Message:   fmt.Sprintf("Cannot query field %q on type %q.", fields[0].Name, objectType.Name),
			Locations: fieldLocations(fields),
			Path:      fieldPath,
		})
		return true
	}

	fieldBoundary := fieldPath
	if schema.IsNonNull(fieldDef.Type) {
		fieldBoundary = boundary
	}
	fieldResult := executeFieldGroup(state, objectType, objectValue, fieldDef, fields, fieldPath, fieldBoundary)
	if _, pending := fieldResult.(asyncPending); pending {
		resultMap[responseName] = fieldResult
		return true
	}

	if isNullish(fieldResult) {
		if schema.IsNonNull(fieldDef.Type) {
			// propagate to the parent; the error is already recorded
			return false
		}
		state.markNullifiedPrefix(fieldPath)
		resultMap[responseName] = nil
		return true
	}
	resultMap[responseName] = fieldResult
	return true
}

func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fieldDef *schema.Field, fields []*language.Field, path, boundary Path) any {
	argumentValues, err := coerceArgumentValues(state.schema, fieldDef, fields[0].Arguments, state.variableValues)
	if err != nil {
		state.errors = append(state.errors, FieldError(err, fields, path))
		return nil
	}

	if !fieldDef.Async {
		resolvedValue := resolveSyncField(state, objectType.Name, fieldDef.Name, objectValue, argumentValues, fields, path)
		return completeValue(state, fieldDef.Type, fields, resolvedValue, path, boundary)
	}

	state.asyncTaskGroup = append(state.asyncTaskGroup, asyncTask{
		Task: AsyncResolveTask{
			ObjectType: objectType.Name,
			Field:      fieldDef.Name,
			Source:     objectValue,
			Args:       argumentValues,
		},
		ResponsePath: path,
		Boundary:     boundary,
		FieldType:    fieldDef.Type,
		Fields:       fields,
	})
	return asyncPending{}
}

// flushAsyncTasks flushes tasks and returns results (filtered by tombstones)
func flushAsyncTasks(state *executionState) ([]asyncTask, []AsyncResolveResult) {
	filtered := make([]asyncTask, 0, len(state.asyncTaskGroup))
	for _, at := range state.asyncTaskGroup {
		if state.hasNullifiedPrefix(at.ResponsePath) {
			continue
		}
		filtered = append(filtered, at)
	}
	state.asyncTaskGroup = nil
	if len(filtered) == 0 {
		return nil, nil
	}

	tasks := make([]AsyncResolveTask, len(filtered))
	for i, at := range filtered {
		tasks[i] = at.Task
	}

	results := state.runtime.BatchResolveAsync(state.context, tasks)
	if len(results) != len(tasks) {
		err := fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))
		results = make([]AsyncResolveResult, len(tasks))
		for i := range results {
			results[i].Error = err
		}
	}
	return filtered, results
}

// abortAsyncTasks fails every queued task with err without calling the runtime.
func abortAsyncTasks(state *executionState, err error) {
	pending := state.asyncTaskGroup
	state.asyncTaskGroup = nil
	for _, at := range pending {
		completeAsyncField(state, at, AsyncResolveResult{Error: err})
	}
}

// completeAsyncField completes a single async result, with non-null propagation and pruning
func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult) {
	path := at.ResponsePath
	if state.dataNull || state.hasNullifiedPrefix(path) {
		return
	}

	var completed any
	if res.Error != nil {
		state.errors = append(state.errors, FieldError(res.Error, at.Fields, path))
	} else {
		completed = completeValue(state, at.FieldType, at.Fields, res.Value, path, at.Boundary)
	}

	if isNullish(completed) {
		state.nullify(at.Boundary)
		return
	}
	setValueAtPath(state.response, path, completed)
}

func (s *executionState) nullify(boundary Path) {
	if len(boundary) == 0 {
		s.dataNull = true
		return
	}
	setValueAtPath(s.response, boundary, nil)
	s.markNullifiedPrefix(boundary)
}

// completeValue completes a value. boundary is where null lands if this value
// completes to null.
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path, boundary Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.errors = append(state.errors, GraphQLError{
					Message:   fmt.Sprintf("Cannot return null for non-nullable field %s.", pathToString(path)),
					Locations: fieldLocations(fields),
					Path:      path,
				})
			}
			return nil
		}
		return completeValue(state, schema.Unwrap(fieldType), fields, result, path, boundary)
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path, boundary)
	}
	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), fields, path)
		return nil
	}

	switch {
	case typeObj.Kind.IsLeaf():
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.errors = append(state.errors, FieldError(err, fields, path))
			return nil
		}
		return serialized
	case typeObj.Kind == schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path, boundary)
	case typeObj.Kind.IsAbstract():
		return completeAbstractValue(state, typeObj, fields, result, path, boundary)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), fields, path)
		return nil
	}
}

// completeListValue completes a list value
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path, boundary Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), fields, path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		p := appendPath(path, i)
		itemBoundary := p
		if schema.IsNonNull(inner) {
			itemBoundary = boundary
		}
		v := completeValue(state, inner, fields, item, p, itemBoundary)
		if isNullish(v) {
			if schema.IsNonNull(inner) {
				// a null item nullifies the whole list
				return nil
			}
			state.markNullifiedPrefix(p)
			v = nil
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path, boundary Path) any {
	sub := mergeSelectionSets(fields)
	obj := executeSelectionSet(state, objectType, sub, result, path, boundary)
	if obj == nil {
		return nil
	}
	return obj
}

func completeAbstractValue(state *executionState, abstractType *schema.Type, fields []*language.Field, result any, path, boundary Path) any {
	typeName, err := state.runtime.ResolveType(state.context, abstractType.Name, result)
	if err != nil {
		state.errors = append(state.errors, FieldError(err, fields, path))
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject || !state.schema.IsPossibleType(abstractType.Name, typeName) {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType.Name, typeName), fields, path)
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path, boundary)
}

func pathToString(path Path) string {
	var b strings.Builder
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

func (s *executionState) recordFieldOrder(path Path, groupedFields *collectedFieldMap) {
	ordered := groupedFields.orderedFields()
	names := make([]string, len(ordered))
	for i, f := range ordered {
		names[i] = f.ResponseName
	}
	s.fieldOrder[pathToString(path)] = names
}

// Prefix tombstone helpers
func (s *executionState) markNullifiedPrefix(p Path) {
	key := pathToString(p)
	if key != "" {
		s.nullifiedPrefix[key] = struct{}{}
	}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if len(s.nullifiedPrefix) == 0 {
		return false
	}
	for i := 1; i <= len(p); i++ {
		if _, ok := s.nullifiedPrefix[pathToString(p[:i])]; ok {
			return true
		}
	}
	return false
}

// GetOperation selects the operation to run: the one named operationName, or
// the only operation of the document when operationName is empty.
func GetOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if operationName == "" {
		switch len(document.Operations) {
		case 0:
			return nil, fmt.Errorf("document does not contain any operation")
		case 1:
			return document.Operations[0], nil
		default:
			return nil, fmt.Errorf("Must provide operation name if query contains multiple operations.")
		}
	}
	if op := document.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, fmt.Errorf("Unknown operation named %q.", operationName)
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// Helper function to add an error to the execution state
func (s *executionState) addError(message string, fields []*language.Field, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Locations: fieldLocations(fields), Path: path})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// resolveSyncField resolves a field synchronously
func resolveSyncField(state *executionState, objectType string, fieldName string, source any, args map[string]any, fields []*language.Field, path Path) any {
	value, err := state.runtime.ResolveSync(state.context, objectType, fieldName, source, args)
	if err != nil {
		state.errors = append(state.errors, FieldError(err, fields, path))
		return nil
	}
	return value
}

// setValueAtPath writes value into the response tree. Positions under a
// nulled ancestor are ignored.
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 || responseRoot == nil {
		return
	}
	var current any = responseRoot
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			current = m[e]
		case int:
			slice, ok := current.([]any)
			if !ok || e >= len(slice) {
				return
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok && fe < len(slice) {
			slice[fe] = value
		}
	}
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
