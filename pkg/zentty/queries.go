package zentty

// Operation documents. Each operation's name equals its root field, which
// is how responses are unpacked.

const userFields = `
	_id
	username
	email
	name
	active
	registered
	avatarUrl
`

const entityFields = `
	_id
	title
	body
	metadata
	type
	createdAt
	createdBy {` + userFields + `}
	archived
	file {
		filename
		filesize
		status
	}
`

const fieldErrors = `
	errors {
		field
		message
	}
`

const registerUserMutation = `
mutation registerUser($username: String!, $email: Email!, $name: String!, $password: String!) {
	registerUser(user: {username: $username, email: $email, name: $name, password: $password}) {
		user {` + userFields + `}` + fieldErrors + `
	}
}`

const loginUserMutation = `
mutation loginUser($identifier: String!, $password: String!) {
	loginUser(identifier: $identifier, password: $password) {
		loginSession {
			sessionCode
			createdAt
			expires
			ipAddress
			userAgent
		}` + fieldErrors + `
	}
}`

const logoutUserMutation = `
mutation logoutUser($sessionCode: String) {
	logoutUser(sessionCode: $sessionCode)
}`

const getUserQuery = `
query getUser {
	getUser {` + userFields + `}
}`

const createEntityMutation = `
mutation createEntity($type: String!, $entity: EntityInput, $scopeID: String, $parentEntityID: String, $placeBeforeID: String, $placeAfterID: String) {
	createEntity(type: $type, entity: $entity, scopeID: $scopeID, parentEntityID: $parentEntityID, placeBeforeID: $placeBeforeID, placeAfterID: $placeAfterID) {` + entityFields + `}
}`

const getEntityQuery = `
query getEntity($id: String!) {
	getEntity(id: $id) {` + entityFields + `}
}`

const modifyEntityMutation = `
mutation modifyEntity($id: String!, $entity: EntityInput, $placeBeforeID: String, $placeAfterID: String) {
	modifyEntity(id: $id, entity: $entity, placeBeforeID: $placeBeforeID, placeAfterID: $placeAfterID) {` + entityFields + `}
}`

const relateEntityMutation = `
mutation relateEntity($sourceEntityID: String!, $targetEntityID: String!, $relationship: String!, $metadata: JSON, $placeBeforeID: String, $placeAfterID: String) {
	relateEntity(sourceEntityID: $sourceEntityID, targetEntityID: $targetEntityID, relationship: $relationship, metadata: $metadata, placeBeforeID: $placeBeforeID, placeAfterID: $placeAfterID)
}`

const unrelateEntityMutation = `
mutation unrelateEntity($sourceEntityID: String!, $targetEntityID: String!, $relationship: String!) {
	unrelateEntity(sourceEntityID: $sourceEntityID, targetEntityID: $targetEntityID, relationship: $relationship)
}`

const getEntitiesQuery = `
query getEntities($parentID: String!, $childType: String, $limit: Int = 0, $offset: Int = 0) {
	getEntities(parentID: $parentID, childType: $childType, limit: $limit, offset: $offset) {
		result {
			total
			limit
			offset
		}
		items {` + entityFields + `}
	}
}`

const getRelatedEntitiesQuery = `
query getRelatedEntities($sourceEntityID: String!, $relationship: String!, $type: String, $direction: String = "target", $limit: Int = 0, $offset: Int = 0) {
	getRelatedEntities(sourceEntityID: $sourceEntityID, relationship: $relationship, type: $type, direction: $direction, limit: $limit, offset: $offset) {
		result {
			total
			limit
			offset
		}
		items {
			targetEntity {` + entityFields + `}
			position
		}
	}
}`

const prepareFileUploadMutation = `
mutation prepareFileUpload($entityID: String!, $filename: String!, $type: String, $filesize: Int!) {
	prepareFileUpload(entityID: $entityID, filename: $filename, type: $type, filesize: $filesize)
}`

// The chunk is not a declared variable: it travels as its own multipart part
// and the server binds it to the mutation.
const appendFileChunkMutation = `
mutation appendFileChunk($entityID: String!) {
	appendFileChunk(entityID: $entityID)
}`
