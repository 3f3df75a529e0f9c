package graphql

const queryFacilityTypes = `query GetAllFacilityTypes {
  getAllFacilityTypes { status message statusCode data error }
}`

const queryServiceLines = `query GetServiceLines {
  getServiceLines { status message statusCode data error }
}`

const mutationCreateScenario = `mutation CreateScenario($input: CreateScenarioVersionInput!) {
  createScenario(input: $input) { code message type data }
}`

const mutationUpdateScenario = `mutation UpdateScenario($input: UpdateScenarioVersionWithVersioningInput!) {
  updateScenario(input: $input) { code message type data }
}`

const mutationUpdateTemplate = `mutation UpdateTemplate($input: UpdateScenarioInput!) {
  updateTemplate(input: $input) {
    message
    newVersionCreated
    scenario { id name version facilities services }
  }
}`

const queryScenarioByID = `query GetScenarioById($scenarioId: String!, $version: String) {
  getScenarioById(scenarioId: $scenarioId, version: $version) {
    scenario { id name }
    version
    versions
    questionnaire
    facilities
    services
  }
}`

const queryAdminUser = `query AdminGetUser($userId: String!) {
  admingetUserById(userId: $userId) { status message statusCode data error }
}`

const mutationAdminCreateUser = `mutation AdminCreateUser($input: AdminCreateUserInput!) {
  admincreateUser(input: $input) { status message statusCode data error }
}`

const mutationAdminUpdateUser = `mutation AdminUpdateUser($userId: String!, $input: UpdateUserInput!) {
  adminupdateUser(userId: $userId, input: $input) { status message statusCode data error }
}`
