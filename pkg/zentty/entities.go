package zentty

import (
	"context"

	"github.com/tonimelisma/zentty-go/internal/transport"
)

// toVariables converts the input into the EntityInput object. Nil fields are
// left out so the server keeps their current values.
func (in *EntityInput) toVariables() map[string]any {
	vars := make(map[string]any, 3)

	if in.Title != nil {
		vars["title"] = *in.Title
	}

	if in.Body != nil {
		vars["body"] = in.Body
	}

	if in.Metadata != nil {
		vars["metadata"] = in.Metadata
	}

	return vars
}

// CreateEntity creates an entity of the given type, optionally under a
// parent and positioned relative to a sibling.
func (c *Client) CreateEntity(ctx context.Context, params CreateEntityParams) (*Entity, error) {
	vars := map[string]any{
		"type":   params.Type,
		"entity": params.Entity.toVariables(),
	}
	setIfNotEmpty(vars, "scopeID", params.ScopeID)
	setIfNotEmpty(vars, "parentEntityID", params.ParentEntityID)
	setIfNotEmpty(vars, "placeBeforeID", params.PlaceBeforeID)
	setIfNotEmpty(vars, "placeAfterID", params.PlaceAfterID)

	var entity Entity

	err := c.do(ctx, &transport.Operation{
		Name:      "createEntity",
		Kind:      transport.Mutation,
		Query:     createEntityMutation,
		Variables: vars,
	}, &entity)
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// GetEntity fetches one entity by ID.
func (c *Client) GetEntity(ctx context.Context, params GetEntityParams) (*Entity, error) {
	var entity Entity

	err := c.do(ctx, &transport.Operation{
		Name:      "getEntity",
		Kind:      transport.Query,
		Query:     getEntityQuery,
		Variables: map[string]any{"id": params.ID},
	}, &entity)
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// ModifyEntity updates an entity's content and/or its position among its
// siblings.
func (c *Client) ModifyEntity(ctx context.Context, params ModifyEntityParams) (*Entity, error) {
	vars := map[string]any{"id": params.ID}
	if params.Entity != nil {
		vars["entity"] = params.Entity.toVariables()
	}

	setIfNotEmpty(vars, "placeBeforeID", params.PlaceBeforeID)
	setIfNotEmpty(vars, "placeAfterID", params.PlaceAfterID)

	var entity Entity

	err := c.do(ctx, &transport.Operation{
		Name:      "modifyEntity",
		Kind:      transport.Mutation,
		Query:     modifyEntityMutation,
		Variables: vars,
	}, &entity)
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// RelateEntity adds a directed, labeled relationship from source to target.
func (c *Client) RelateEntity(ctx context.Context, params RelateEntityParams) (bool, error) {
	vars := map[string]any{
		"sourceEntityID": params.SourceEntityID,
		"targetEntityID": params.TargetEntityID,
		"relationship":   params.Relationship,
	}
	if params.Metadata != nil {
		vars["metadata"] = params.Metadata
	}

	setIfNotEmpty(vars, "placeBeforeID", params.PlaceBeforeID)
	setIfNotEmpty(vars, "placeAfterID", params.PlaceAfterID)

	var ok bool

	err := c.do(ctx, &transport.Operation{
		Name:      "relateEntity",
		Kind:      transport.Mutation,
		Query:     relateEntityMutation,
		Variables: vars,
	}, &ok)

	return ok, err
}

// UnrelateEntity removes a relationship added by RelateEntity.
func (c *Client) UnrelateEntity(ctx context.Context, params UnrelateEntityParams) (bool, error) {
	var ok bool

	err := c.do(ctx, &transport.Operation{
		Name:  "unrelateEntity",
		Kind:  transport.Mutation,
		Query: unrelateEntityMutation,
		Variables: map[string]any{
			"sourceEntityID": params.SourceEntityID,
			"targetEntityID": params.TargetEntityID,
			"relationship":   params.Relationship,
		},
	}, &ok)

	return ok, err
}

// GetEntities lists the children of an entity, optionally filtered by type.
func (c *Client) GetEntities(ctx context.Context, params GetEntitiesParams) (*EntityList, error) {
	vars := map[string]any{"parentID": params.ParentID}
	setIfNotEmpty(vars, "childType", params.ChildType)
	setPaging(vars, params.Limit, params.Offset)

	var list EntityList

	err := c.do(ctx, &transport.Operation{
		Name:      "getEntities",
		Kind:      transport.Query,
		Query:     getEntitiesQuery,
		Variables: vars,
	}, &list)
	if err != nil {
		return nil, err
	}

	return &list, nil
}

// GetRelatedEntities lists the entities related to a source entity through
// one relationship label.
func (c *Client) GetRelatedEntities(ctx context.Context, params GetRelatedEntitiesParams) (*RelatedEntityList, error) {
	direction := params.Direction
	if direction == "" {
		direction = DirectionTarget
	}

	vars := map[string]any{
		"sourceEntityID": params.SourceEntityID,
		"relationship":   params.Relationship,
		"direction":      direction,
	}
	setIfNotEmpty(vars, "type", params.Type)
	setPaging(vars, params.Limit, params.Offset)

	var list RelatedEntityList

	err := c.do(ctx, &transport.Operation{
		Name:      "getRelatedEntities",
		Kind:      transport.Query,
		Query:     getRelatedEntitiesQuery,
		Variables: vars,
	}, &list)
	if err != nil {
		return nil, err
	}

	return &list, nil
}

func setPaging(vars map[string]any, limit, offset int) {
	if limit > 0 {
		vars["limit"] = limit
	}

	if offset > 0 {
		vars["offset"] = offset
	}
}
